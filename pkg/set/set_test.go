package set_test

import (
	"slices"
	"testing"

	"github.com/stateforward/go-statechart/pkg/set"
)

func TestSet(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		s := set.New("a", "b", "a", "c")
		if s.Size() != 3 {
			t.Errorf("Expected duplicates to be dropped, got size %d", s.Size())
		}
		for _, item := range []string{"a", "b", "c"} {
			if !s.Contains(item) {
				t.Errorf("Expected set to contain %q", item)
			}
		}
	})

	t.Run("Remove", func(t *testing.T) {
		s := set.New(1, 2, 3)
		if !s.Remove(2) {
			t.Error("Expected 2 to be removed")
		}
		if s.Remove(2) {
			t.Error("Expected a second removal to report false")
		}
		if s.Contains(2) || s.Size() != 2 {
			t.Errorf("Unexpected contents after removal: %v", s.Slice())
		}
		if s.At(1) != 3 {
			t.Errorf("Expected later items to shift down, got %d at 1", s.At(1))
		}
	})

	t.Run("Order", func(t *testing.T) {
		s := set.New("c", "a", "b", "a")
		if !slices.Equal(s.Slice(), []string{"c", "a", "b"}) {
			t.Errorf("Expected insertion order, got %v", s.Slice())
		}
		s.Remove("a")
		s.Add("a")
		if !slices.Equal(s.Slice(), []string{"c", "b", "a"}) {
			t.Errorf("Expected re-added item last, got %v", s.Slice())
		}
	})

	t.Run("SliceIsCopy", func(t *testing.T) {
		s := set.New("x", "y")
		items := s.Slice()
		items[0] = "z"
		if s.At(0) != "x" {
			t.Error("Expected Slice to return a copy")
		}
	})

	t.Run("GrowWhileRanging", func(t *testing.T) {
		s := set.New(1)
		visited := []int{}
		for item := range s.Items() {
			visited = append(visited, item)
			if item < 3 {
				s.Add(item + 1)
			}
		}
		if !slices.Equal(visited, []int{1, 2, 3}) {
			t.Errorf("Expected items added while ranging to be visited, got %v", visited)
		}
	})

	t.Run("StopRanging", func(t *testing.T) {
		visited := 0
		for range set.New(1, 2, 3).Items() {
			visited++
			break
		}
		if visited != 1 {
			t.Errorf("Expected ranging to stop after break, visited %d", visited)
		}
	})

	t.Run("ZeroValue", func(t *testing.T) {
		var s set.Set[string]
		if s.Contains("x") || s.Remove("x") {
			t.Error("Expected empty zero value")
		}
		s.Add("x")
		if !s.Contains("x") || s.Size() != 1 {
			t.Error("Expected zero value to accept items")
		}
	})

	t.Run("Nil", func(t *testing.T) {
		var s *set.Set[int]
		if s.Contains(1) || s.Size() != 0 || s.Slice() != nil {
			t.Error("Expected a nil set to read as empty")
		}
	})
}
