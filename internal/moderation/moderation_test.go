package moderation

import (
	"testing"

	"github.com/taehoonhoonn/where-smoking/internal/models"
)

func TestRule(t *testing.T) {
	tests := []struct {
		action   Action
		from, to models.Status
	}{
		{ActionApprove, models.StatusPending, models.StatusActive},
		{ActionReject, models.StatusPending, models.StatusRejected},
		{ActionDelete, models.StatusActive, models.StatusDeleted},
	}

	for _, tt := range tests {
		got, err := Rule(tt.action)
		if err != nil {
			t.Fatalf("Rule(%s) error: %v", tt.action, err)
		}
		if got.From != tt.from || got.To != tt.to {
			t.Errorf("Rule(%s) = %s->%s, want %s->%s", tt.action, got.From, got.To, tt.from, tt.to)
		}
	}

	if _, err := Rule("restore"); err == nil {
		t.Error("Expected error for unknown action")
	}
}

func TestTerminalStates(t *testing.T) {
	if !Terminal(models.StatusRejected) {
		t.Error("rejected must be terminal")
	}
	if !Terminal(models.StatusDeleted) {
		t.Error("deleted must be terminal")
	}
	if Terminal(models.StatusPending) || Terminal(models.StatusActive) {
		t.Error("pending and active must not be terminal")
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(models.StatusPending, models.StatusActive) {
		t.Error("pending -> active must be allowed")
	}
	if CanTransition(models.StatusRejected, models.StatusActive) {
		t.Error("rejected -> active must not be allowed")
	}
	if CanTransition(models.StatusPending, models.StatusDeleted) {
		t.Error("pending -> deleted must not be allowed")
	}
	if CanTransition(models.StatusActive, models.StatusPending) {
		t.Error("active -> pending must not be allowed")
	}
}
