package subscriptions

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal subscription transition")

// transitions lists every legal (from -> to) move other than self-transitions,
// which are always allowed so that replayed events are no-ops.
var transitions = map[Status][]Status{
	StatusPending:  {StatusActive, StatusTrialing, StatusCanceled},
	StatusTrialing: {StatusActive, StatusPastDue, StatusCanceled, StatusPending},
	StatusActive:   {StatusPastDue, StatusCanceled},
	StatusPastDue:  {StatusActive, StatusCanceled, StatusPending},
	StatusCanceled: {StatusPending, StatusActive, StatusTrialing},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns nil when from -> to is legal and a wrapped ErrIllegalTransition otherwise.
func Transition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
