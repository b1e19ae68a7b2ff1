package models

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// StopMapEntry links a stop to its counterpart under another operator. It is
// encoded as a two-element array: ["ctb", "001234"].
type StopMapEntry struct {
	Operator Operator
	StopID   string
}

func (e StopMapEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{string(e.Operator), e.StopID})
}

func (e *StopMapEntry) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("stop map entry must have 2 elements, got %d", len(pair))
	}
	e.Operator = Operator(pair[0])
	e.StopID = pair[1]
	return nil
}

// StopMap is the stop identity map: stop id to its aliases under other operators.
type StopMap map[string][]StopMapEntry

// Links reports whether an alias connects a and b in either direction.
func (m StopMap) Links(a, b string) bool {
	for _, e := range m[a] {
		if e.StopID == b {
			return true
		}
	}
	for _, e := range m[b] {
		if e.StopID == a {
			return true
		}
	}
	return false
}

// Add records that stopID is known as counterpart under op. It returns false
// when the entry already exists.
func (m StopMap) Add(stopID string, op Operator, counterpart string) bool {
	entry := StopMapEntry{Operator: op, StopID: counterpart}
	for _, e := range m[stopID] {
		if e == entry {
			return false
		}
	}
	m[stopID] = append(m[stopID], entry)
	return true
}

// AddPair records a bidirectional alias between aID (served by aOp) and bID
// (served by bOp).
func (m StopMap) AddPair(aOp Operator, aID string, bOp Operator, bID string) {
	m.Add(aID, bOp, bID)
	m.Add(bID, aOp, aID)
}

// Prune removes every entry keyed by or referencing a stop in removed, and
// drops keys left without entries. It returns the number of entries removed.
func (m StopMap) Prune(removed map[string]struct{}) int {
	count := 0
	for key, entries := range m {
		if _, gone := removed[key]; gone {
			count += len(entries)
			delete(m, key)
			continue
		}
		kept := entries[:0]
		for _, e := range entries {
			if _, gone := removed[e.StopID]; gone {
				count++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(m, key)
		} else {
			m[key] = kept
		}
	}
	return count
}

// Dangling returns, sorted, every stop id that appears in the map (as key or
// counterpart) but not in stops.
func (m StopMap) Dangling(stops map[string]*Stop) []string {
	seen := make(map[string]struct{})
	check := func(id string) {
		if _, ok := stops[id]; !ok {
			seen[id] = struct{}{}
		}
	}
	for key, entries := range m {
		check(key)
		for _, e := range entries {
			check(e.StopID)
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
