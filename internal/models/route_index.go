package models

import "sort"

// RouteName is the terminal pair an operator's route list publishes for a route number.
type RouteName struct {
	Orig BilingualText `json:"orig"`
	Dest BilingualText `json:"dest"`
}

// RouteIndex lists, per route number, every operator that publishes it.
// It is the source of truth for which routes should exist in the catalog.
type RouteIndex map[string]map[Operator]RouteName

// Register records that op publishes number, replacing any earlier names.
func (ix RouteIndex) Register(number string, op Operator, name RouteName) {
	if ix[number] == nil {
		ix[number] = make(map[Operator]RouteName)
	}
	ix[number][op] = name
}

// Numbers returns every route number in lexical order.
func (ix RouteIndex) Numbers() []string {
	numbers := make([]string, 0, len(ix))
	for n := range ix {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	return numbers
}

// Clone returns an independent copy of the index.
func (ix RouteIndex) Clone() RouteIndex {
	out := make(RouteIndex, len(ix))
	for number, ops := range ix {
		for op, name := range ops {
			out.Register(number, op, name)
		}
	}
	return out
}

// LiveSequences holds authoritative stop sequences keyed by route number and
// then by direction code ("O" or "I").
type LiveSequences map[string]map[string][]string

// Get returns the sequence for a route number and direction.
func (l LiveSequences) Get(number, bound string) []string {
	return l[number][bound]
}

// Has reports whether any sequence was collected for the route number.
func (l LiveSequences) Has(number string) bool {
	for _, seq := range l[number] {
		if len(seq) > 0 {
			return true
		}
	}
	return false
}

// Set stores a sequence.
func (l LiveSequences) Set(number, bound string, stops []string) {
	if l[number] == nil {
		l[number] = make(map[string][]string)
	}
	l[number][bound] = stops
}
