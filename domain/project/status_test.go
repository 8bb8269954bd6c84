package project

import (
	"errors"
	"testing"

	"bedesign/domain/core"
)

// TestTransitionTable exhaustively checks the allowed moves
func TestTransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusSearching:          {StatusSearchingCompleted, StatusSearchFailed, StatusFailed},
		StatusSearchingCompleted: {StatusCompleted, StatusDesignFailed, StatusRegulatoryCheckFailed, StatusFailed},
	}

	all := []Status{
		StatusSearching, StatusSearchingCompleted, StatusCompleted,
		StatusSearchFailed, StatusDesignFailed, StatusRegulatoryCheckFailed, StatusFailed,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStates(t *testing.T) {
	terminals := []Status{
		StatusCompleted, StatusSearchFailed, StatusDesignFailed,
		StatusRegulatoryCheckFailed, StatusFailed,
	}
	for _, s := range terminals {
		if !s.IsTerminal() {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusSearching, StatusSearchingCompleted} {
		if s.IsTerminal() {
			t.Errorf("Expected %s to not be terminal", s)
		}
	}
}

func TestFailureStates(t *testing.T) {
	for _, s := range []Status{StatusSearchFailed, StatusDesignFailed, StatusRegulatoryCheckFailed, StatusFailed} {
		if !s.IsFailure() {
			t.Errorf("Expected %s to be a failure state", s)
		}
	}
	for _, s := range []Status{StatusSearching, StatusSearchingCompleted, StatusCompleted} {
		if s.IsFailure() {
			t.Errorf("Expected %s to not be a failure state", s)
		}
	}
}

func TestCheckTransitionErrors(t *testing.T) {
	if err := CheckTransition(StatusSearching, StatusSearchingCompleted); err != nil {
		t.Errorf("Expected valid transition, got %v", err)
	}

	err := CheckTransition(StatusCompleted, StatusSearching)
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for completed -> searching, got %v", err)
	}

	err = CheckTransition(Status("bogus"), StatusCompleted)
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for unknown status, got %v", err)
	}
}

func TestNewProjectStartsSearching(t *testing.T) {
	p := New(Drug{INNEn: "ibuprofen", Dosage: "400mg", Form: "tablets"})

	if p.Status != StatusSearching {
		t.Errorf("Expected new project in searching, got %s", p.Status)
	}
	if p.ID == "" {
		t.Error("Expected a generated project ID")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}
