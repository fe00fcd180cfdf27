package task

// nextStatus lists the statuses reachable from a status. Tasks only move forward.
var nextStatus = map[string]string{
	StatusPending:    StatusInProgress,
	StatusInProgress: StatusCompleted,
}

// CanTransition tells whether a task may go from `from` to `to`.
// Managers may also reopen a completed task.
func CanTransition(from, to string, isManager bool) bool {
	if next, ok := nextStatus[from]; ok && next == to {
		return true
	}
	return isManager && from == StatusCompleted && to == StatusPending
}

// NextStatus returns the status a task moves to when advanced, "" if it is completed.
func NextStatus(from string) string {
	return nextStatus[from]
}
