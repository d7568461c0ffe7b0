// Package lifecycle holds the transaction state machine. It only computes
// legal next states; persistence belongs to the caller.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/baharkarakas/payments-core/internal/models"
)

type Event string

const (
	EventPromote  Event = "promote"
	EventBegin    Event = "begin"
	EventComplete Event = "complete"
	EventFail     Event = "fail"
	EventCancel   Event = "cancel"
)

var ErrIllegalTransition = errors.New("illegal transition")

// IllegalTransitionError names the rejected move. Event is empty when the
// move was expressed as a target state.
type IllegalTransitionError struct {
	From   models.TransactionState
	Event  Event
	Target models.TransactionState
}

func (e *IllegalTransitionError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("illegal transition: %s from %s", e.Event, e.From)
	}
	return fmt.Sprintf("illegal transition: %s -> %s", e.From, e.Target)
}

func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }

type edge struct {
	from  models.TransactionState
	event Event
}

var table = map[edge]models.TransactionState{
	{models.StateScheduled, EventPromote}:   models.StateCreated,
	{models.StateCreated, EventBegin}:       models.StateProcessing,
	{models.StateProcessing, EventComplete}: models.StateConfirmed,
	{models.StateProcessing, EventFail}:     models.StateFailed,
	{models.StateCreated, EventCancel}:      models.StateCanceled,
	{models.StateProcessing, EventCancel}:   models.StateCanceled,
}

// Apply returns the state reached by firing event in state from.
func Apply(from models.TransactionState, event Event) (models.TransactionState, error) {
	next, ok := table[edge{from, event}]
	if !ok {
		return from, &IllegalTransitionError{From: from, Event: event}
	}
	return next, nil
}

// CanTransition reports whether some event moves from to target.
func CanTransition(from, target models.TransactionState) bool {
	for e, next := range table {
		if e.from == from && next == target {
			return true
		}
	}
	return false
}

// Check is CanTransition returning an IllegalTransitionError.
func Check(from, target models.TransactionState) error {
	if !CanTransition(from, target) {
		return &IllegalTransitionError{From: from, Target: target}
	}
	return nil
}

// IsTerminal reports whether no event leaves state.
func IsTerminal(state models.TransactionState) bool {
	switch state {
	case models.StateConfirmed, models.StateFailed, models.StateCanceled:
		return true
	}
	return false
}

// Valid reports whether state is one of the enumerated states.
func Valid(state models.TransactionState) bool {
	switch state {
	case models.StateCreated, models.StateProcessing, models.StateConfirmed,
		models.StateFailed, models.StateCanceled, models.StateScheduled:
		return true
	}
	return false
}
