package store

import (
	"log"

	"taskboard/models"
)

// Notification is the toast-style message emitted after a mutation.
type Notification struct {
	Kind    ChangeKind
	Task    models.Task
	Message string
}

type Notifier func(Notification)

// Notice returns the user-facing message for a change. For toggles it
// describes the state the task moved to.
func Notice(kind ChangeKind, t models.Task) string {
	switch kind {
	case ChangeAdded:
		return "Task added successfully!"
	case ChangeUpdated:
		return "Task updated successfully!"
	case ChangeDeleted:
		return "Task deleted successfully!"
	case ChangeToggled:
		if t.Completed {
			return "Task marked as complete!"
		}
		return "Task marked as incomplete!"
	}
	return ""
}

// LogNotifier writes notifications to the standard logger, tagged with owner.
func LogNotifier(owner string) Notifier {
	return func(n Notification) {
		log.Printf("[%s] %s (task %d)", owner, n.Message, n.Task.ID)
	}
}
