package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddRemoveOpponentSymmetric(t *testing.T) {
	a := NewActiveEntity(10, 100, 50, 1.0)
	b := NewActiveEntity(10, 100, 50, 1.0)

	AddRemoveOpponent(true, a, b)
	assert.True(t, a.HasOpponent(b.ID()))
	assert.True(t, b.HasOpponent(a.ID()))

	AddRemoveOpponent(false, a, b)
	assert.False(t, a.HasOpponent(b.ID()))
	assert.False(t, b.HasOpponent(a.ID()))
}

func TestAggroTargetImpliesAggressor(t *testing.T) {
	e := NewActiveEntity(10, 100, 50, 1.0)
	target := NewActiveEntity(10, 100, 50, 1.0)

	e.SetAggroTarget(target.ID())
	UpdateAggressor(true, e, target)

	assert.Equal(t, target.ID(), e.AggroTarget())
	assert.Contains(t, target.Aggressors(), e.ID())
}

func TestStopAtCollapsesMovement(t *testing.T) {
	e := NewActiveEntity(1, 10, 10, 1.0)
	e.SetMovement(Placement{X: 0, Y: 0, Ticks: 0}, Placement{X: 100, Y: 0, Ticks: 1000})

	e.StopAt(500)
	assert.False(t, e.IsMoving())
	pos := e.Position(500)
	assert.InDelta(t, 50, pos.X, 1e-4)
}
