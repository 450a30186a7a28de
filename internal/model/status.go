package model

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

var allowedTransitions = map[TaskStatus][]TaskStatus{
	StatusTodo:       {StatusInProgress},
	StatusInProgress: {StatusTodo, StatusDone},
	StatusDone:       {},
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Successors returns the statuses reachable from s in one step.
// Unknown statuses have no successors.
func Successors(s TaskStatus) []TaskStatus {
	next := allowedTransitions[s]
	out := make([]TaskStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether a task may move from current to requested.
// Staying in the same status is always allowed.
func CanTransition(current, requested TaskStatus) bool {
	if current == requested {
		return true
	}
	for _, s := range allowedTransitions[current] {
		if s == requested {
			return true
		}
	}
	return false
}
