package project

import (
	"fmt"

	"bedesign/domain/core"
)

// Status is the closed set of pipeline states for a project. A status only
// ever advances along the transition table below; it never reverts.
type Status string

const (
	// StatusSearching is the initial state: literature search and
	// extraction are in flight.
	StatusSearching Status = "searching"
	// StatusSearchingCompleted means parameters are persisted and the
	// design / regulatory stages may run.
	StatusSearchingCompleted Status = "searching_completed"
	// StatusCompleted is the successful terminal state.
	StatusCompleted Status = "completed"

	// Stage-specific terminal failure states
	StatusSearchFailed          Status = "search_failed"
	StatusDesignFailed          Status = "design_failed"
	StatusRegulatoryCheckFailed Status = "regulatory_check_failed"
	// StatusFailed is the terminal catch-all for uncategorized faults.
	StatusFailed Status = "failed"
)

// transitions is the exhaustive table of allowed moves. Anything not
// listed is rejected rather than written.
var transitions = map[Status][]Status{
	StatusSearching: {
		StatusSearchingCompleted,
		StatusSearchFailed,
		StatusFailed,
	},
	StatusSearchingCompleted: {
		StatusCompleted,
		StatusDesignFailed,
		StatusRegulatoryCheckFailed,
		StatusFailed,
	},
	StatusCompleted:             {},
	StatusSearchFailed:          {},
	StatusDesignFailed:          {},
	StatusRegulatoryCheckFailed: {},
	StatusFailed:                {},
}

// Valid reports whether s is a known status value
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// IsFailure reports whether s is one of the failure states
func (s Status) IsFailure() bool {
	switch s {
	case StatusSearchFailed, StatusDesignFailed, StatusRegulatoryCheckFailed, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the table allows moving from s to next
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckTransition returns a typed error when the move is not in the table
func CheckTransition(from, to Status) error {
	if !from.Valid() {
		return fmt.Errorf("%w: unknown status %q", core.ErrInvalidTransition, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", core.ErrInvalidTransition, to)
	}
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", core.ErrInvalidTransition, from, to)
	}
	return nil
}
