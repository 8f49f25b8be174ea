package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusPreparing, StatusReadyForPickup,
		StatusAssigned, StatusOnTheWay, StatusCompleted, StatusCancelled,
	} {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("delivered").Valid())
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusPreparing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusReadyForPickup, false},
		{StatusPreparing, StatusReadyForPickup, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusPreparing, StatusPending, false},
		{StatusReadyForPickup, StatusAssigned, true},
		{StatusAssigned, StatusOnTheWay, true},
		{StatusOnTheWay, StatusCompleted, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPreparing, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())

	for _, s := range ActiveStatuses {
		assert.False(t, s.IsTerminal(), "active status %s must not be terminal", s)
	}
}
