package kinds_test

import (
	"testing"

	"github.com/stateforward/go-statechart/kinds"
)

func TestKinds(t *testing.T) {
	if !kinds.IsKind(kinds.Statechart, kinds.Behavior) {
		t.Errorf("Statechart should be a Behavior")
	}
	if kinds.IsKind(kinds.Statechart, kinds.Vertex) {
		t.Errorf("Statechart should not be a Vertex")
	}
	if !kinds.IsKind(kinds.State, kinds.Vertex) {
		t.Errorf("State should be a Vertex")
	}
	if kinds.IsKind(kinds.State, kinds.Behavior) {
		t.Errorf("State should not be a Behavior")
	}
	if !kinds.IsKind(kinds.History, kinds.Pseudostate) {
		t.Errorf("History should be a Pseudostate")
	}
	if kinds.IsKind(kinds.History, kinds.State) {
		t.Errorf("History should not be a State")
	}
	if !kinds.IsKind(kinds.Placeholder, kinds.State, kinds.Vertex) {
		t.Errorf("Placeholder should be a State")
	}
	if !kinds.IsKind(kinds.Route, kinds.Transition) {
		t.Errorf("Route should be a Transition")
	}
	if !kinds.IsKind(kinds.Pattern, kinds.Handler) || kinds.IsKind(kinds.Observe, kinds.Handler) {
		t.Errorf("Pattern should be a Handler and Observe should not")
	}
}

func TestBases(t *testing.T) {
	bases := kinds.Bases(kinds.History)
	if bases[0] != kinds.Pseudostate&0xff {
		t.Errorf("first base of History = %d, want Pseudostate", bases[0])
	}
	if bases[1] != kinds.Vertex&0xff || bases[2] != kinds.Element&0xff {
		t.Errorf("History bases = %v, want Pseudostate, Vertex, Element", bases)
	}
}
