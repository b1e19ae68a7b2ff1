package models

// Operator identifies a transit operator as it appears in bound, co and stops keys.
type Operator string

const (
	KMB          Operator = "kmb"
	CTB          Operator = "ctb"
	NLB          Operator = "nlb"
	MTRBus       Operator = "mtr-bus"
	LRTFeeder    Operator = "lrtfeeder"
	GMB          Operator = "gmb"
	LightRail    Operator = "lightRail"
	MTR          Operator = "mtr"
	HKKF         Operator = "hkkf"
	SunFerry     Operator = "sunferry"
	FortuneFerry Operator = "fortuneferry"
)

// PrimaryOperatorOrder is the precedence used to pick the operator whose stop
// sequence must be non-empty for a route record to survive pruning.
var PrimaryOperatorOrder = []Operator{
	KMB, CTB, NLB, MTRBus, LRTFeeder, GMB, LightRail, MTR, HKKF, SunFerry, FortuneFerry,
}

// Ferries lists the operators whose co list is rebuilt from the bound map.
var Ferries = []Operator{HKKF, SunFerry, FortuneFerry}
