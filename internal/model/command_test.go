package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandQueuePopNeverReappears(t *testing.T) {
	q := NewCommandQueue()
	q.Push(WaitCommand{DurationMS: 100})
	q.Push(&MoveCommand{Path: []Point{{X: 1, Y: 1}}})

	first := q.Pop()
	assert.Equal(t, CommandWait, first.Kind())
	assert.Equal(t, 1, q.Len())

	discarded := q.Clear()
	assert.Len(t, discarded, 1)
	assert.True(t, q.Empty())

	// Popping again never resurrects the cleared command.
	assert.Nil(t, q.Pop())
}

func TestCommandQueueInterrupt(t *testing.T) {
	q := NewCommandQueue()
	q.Push(WaitCommand{DurationMS: 1})
	q.PushFront(&UseSkillCommand{SkillID: 7})

	head := q.Pop()
	usc, ok := head.(*UseSkillCommand)
	assert.True(t, ok)
	assert.Equal(t, int32(7), usc.SkillID)
}
