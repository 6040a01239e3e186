package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidTask is wrapped by every task validation failure.
var ErrInvalidTask = errors.New("invalid task")

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid priorities in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, s)
	}
	return p, nil
}

type Task struct {
	ID          int       `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Completed   bool      `json:"completed" db:"completed"`
	Priority    Priority  `json:"priority" db:"priority"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// TaskInput is a task as submitted by a user, before it has an id or a creation time.
type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Priority    Priority `json:"priority"`
}

func (in TaskInput) Validate() error {
	if err := ValidateTitle(in.Title); err != nil {
		return err
	}
	if !in.Priority.Valid() {
		return fmt.Errorf("%w: priority must be one of low, medium, high", ErrInvalidTask)
	}
	return nil
}

func (t Task) Validate() error {
	return t.Input().Validate()
}

// Input returns the user-editable fields of t.
func (t Task) Input() TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
	}
}

func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 || utf8.RuneCountInString(title) > 255 {
		return fmt.Errorf("%w: title must be between 1 and 255 characters", ErrInvalidTask)
	}
	return nil
}

// NextID returns max(existing ids, 0) + 1.
func NextID(tasks []Task) int {
	highest := 0
	for _, t := range tasks {
		highest = max(highest, t.ID)
	}
	return highest + 1
}
