package model

import "sync"

// CommandKind distinguishes the AICommand variants.
type CommandKind int32

const (
	CommandWait CommandKind = iota
	CommandMove
	CommandUseSkill
	CommandScripted
)

// Command is one queued unit of AI behavior. The head command is advanced
// once per tick until it is popped.
//
// The command types are plain data defined in this file; the code that
// advances them lives in internal/ai (it needs access to the zone, pathing,
// and skill engine), so AIState can hold commands without an import cycle.
type Command interface {
	Kind() CommandKind
	// TargetEntityID returns the entity id this command is conditioned on,
	// or 0. A nonzero target must resolve to an entity in the same zone,
	// or the command self-cancels next tick.
	TargetEntityID() uint32
}

// WaitCommand pauses the queue for a fixed duration.
type WaitCommand struct {
	DurationMS int64
}

func (WaitCommand) Kind() CommandKind        { return CommandWait }
func (WaitCommand) TargetEntityID() uint32   { return 0 }

// MoveCommand walks a path, optionally terminating early based on distance
// to a live target.
type MoveCommand struct {
	Path        []Point
	TargetID    uint32 // 0 = no target-relative termination
	MinDistance float64
	MaxDistance float64 // 0 = no cap
	cursor      int
}

func (m *MoveCommand) Kind() CommandKind      { return CommandMove }
func (m *MoveCommand) TargetEntityID() uint32 { return m.TargetID }

// Cursor returns the index of the next path point to walk toward.
func (m *MoveCommand) Cursor() int { return m.cursor }

// AdvanceCursor moves the path cursor forward by one point.
func (m *MoveCommand) AdvanceCursor() { m.cursor++ }

// Remaining reports whether path points remain past the cursor.
func (m *MoveCommand) Remaining() bool { return m.cursor < len(m.Path) }

// UseSkillCommand is a single attempt to either activate or (with Activated
// set) execute a skill against a target. It pops once the attempt succeeds
// or fails outright; a retryable result leaves it at the queue head. An
// in-flight cast that needs to keep resolving over subsequent ticks is
// tracked on AIState's ActivatedSkill instead, and a fresh UseSkillCommand
// with Activated=true is queued once it is ready to execute.
type UseSkillCommand struct {
	SkillID   int32
	TargetID  uint32
	Activated bool
}

func (u *UseSkillCommand) Kind() CommandKind      { return CommandUseSkill }
func (u *UseSkillCommand) TargetEntityID() uint32 { return u.TargetID }

// ScriptedCommand invokes a named script function each tick until it
// signals completion.
type ScriptedCommand struct {
	FuncName string
}

func (ScriptedCommand) Kind() CommandKind      { return CommandScripted }
func (ScriptedCommand) TargetEntityID() uint32 { return 0 }

// CommandQueue is a FIFO of Commands with interrupt-to-head support. It has
// its own mutex so it can be touched independently of the rest of AIState.
type CommandQueue struct {
	mu    sync.Mutex
	items []Command
}

// NewCommandQueue returns an empty queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

// Push appends a command to the tail.
func (q *CommandQueue) Push(c Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
}

// PushFront inserts a command at the head, interrupting whatever is running.
func (q *CommandQueue) PushFront(c Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]Command{c}, q.items...)
}

// Peek returns the head command without removing it, or nil if empty.
func (q *CommandQueue) Peek() Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Pop removes and returns the head command, or nil if empty. A command
// popped from an entity's queue never re-appears there — Pop always
// removes, it never re-pushes; callers that need a skill command to
// survive a queue clear must explicitly re-Push it.
func (q *CommandQueue) Pop() Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	c := q.items[0]
	q.items = q.items[1:]
	return c
}

// Clear empties the queue and returns whatever was discarded, so the caller
// can inspect the discarded head.
func (q *CommandQueue) Clear() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	discarded := q.items
	q.items = nil
	return discarded
}

// Empty reports whether the queue has no commands.
func (q *CommandQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
