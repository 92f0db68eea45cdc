// Package moderation holds the status transition table for smoking area
// records.
package moderation

import (
	"fmt"

	"github.com/taehoonhoonn/where-smoking/internal/models"
)

// Action 관리자 조치
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionDelete  Action = "delete"
)

// Transition 상태 전이 (From -> To)
type Transition struct {
	From models.Status
	To   models.Status
}

var rules = map[Action]Transition{
	ActionApprove: {From: models.StatusPending, To: models.StatusActive},
	ActionReject:  {From: models.StatusPending, To: models.StatusRejected},
	ActionDelete:  {From: models.StatusActive, To: models.StatusDeleted},
}

// Rule returns the transition an action performs.
func Rule(action Action) (Transition, error) {
	t, ok := rules[action]
	if !ok {
		return Transition{}, fmt.Errorf("unknown moderation action %q", action)
	}
	return t, nil
}

// CanTransition reports whether some action moves a record from one status
// to the other.
func CanTransition(from, to models.Status) bool {
	for _, t := range rules {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no action leaves status s.
func Terminal(s models.Status) bool {
	for _, t := range rules {
		if t.From == s {
			return false
		}
	}
	return true
}
