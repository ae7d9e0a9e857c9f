package models

import (
	"fmt"

	"github.com/mvoronin/parceltrack/internal/common"
)

// Status is the closed set of delivery states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// transitions is the only encoding of the state machine. Forward edges
// only: pending may go straight to delivered (agents can mark delivery
// without an explicit in-transit step), delivered and failed are terminal.
var transitions = map[Status]map[Status]bool{
	StatusPending:   {StatusInTransit: true, StatusDelivered: true, StatusFailed: true},
	StatusInTransit: {StatusDelivered: true, StatusFailed: true},
	StatusDelivered: {},
	StatusFailed:    {},
}

// ParseStatus validates a status string coming from storage or a request.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusInTransit, StatusDelivered, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", common.ErrValidation, s)
}

// CanTransitionTo reports whether the state machine defines an edge from
// s to next.
func (s Status) CanTransitionTo(next Status) bool {
	return transitions[s][next]
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}
