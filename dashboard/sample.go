package dashboard

import (
	"time"

	"taskboard/models"
)

// SampleTasks is what a fresh dashboard shows before the user has done anything.
func SampleTasks(now time.Time) []models.Task {
	return []models.Task{
		{
			ID:          1,
			Title:       "Complete project proposal",
			Description: "Finish the project proposal document and send to stakeholders",
			Completed:   false,
			Priority:    models.PriorityHigh,
			CreatedAt:   now,
		},
		{
			ID:          2,
			Title:       "Schedule team meeting",
			Description: "Arrange a meeting with the team for next week",
			Completed:   true,
			Priority:    models.PriorityMedium,
			CreatedAt:   now.Add(-24 * time.Hour),
		},
	}
}
