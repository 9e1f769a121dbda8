package agent

import (
	"errors"
	"testing"
)

func TestStoreInsertDuplicate(t *testing.T) {
	s := NewStore()
	if err := s.Insert(Agent{ID: "agent-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Insert(Agent{ID: "agent-1"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestStoreRemoveNotFound(t *testing.T) {
	s := NewStore()
	if _, err := s.Remove("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRemoveThenReinsert(t *testing.T) {
	s := NewStore()
	_ = s.Insert(Agent{ID: "agent-1", Energy: 10})
	got, err := s.Remove("agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Energy != 10 {
		t.Fatalf("expected removed agent energy 10, got %d", got.Energy)
	}
	if err := s.Insert(Agent{ID: "agent-1", Energy: 20}); err != nil {
		t.Fatalf("expected reinsert after removal to succeed: %v", err)
	}
}

func TestIterSortedOrder(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"c", "a", "b"} {
		_ = s.Insert(Agent{ID: id})
	}
	var order []string
	s.IterSorted(func(a Agent) bool {
		order = append(order, a.ID)
		return true
	})
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("expected sorted order %v, got %v", want, order)
		}
	}
}

func TestIterSortedEarlyStop(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"a", "b", "c"} {
		_ = s.Insert(Agent{ID: id})
	}
	count := 0
	s.IterSorted(func(a Agent) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Fatalf("expected early stop after 2 agents, got %d", count)
	}
}
