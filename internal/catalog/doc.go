// Package catalog reconciles per-operator route and stop tables into one
// cross-referenced catalog.
//
// The work happens in ordered stages run by an Assembler over a single
// *models.Catalog that the run owns exclusively. Stages never run
// concurrently; any data they need from the network (live stop sequences,
// headway routes) is collected before the Assembler starts.
package catalog
