// Package dashboard is the view logic of the task page: which modal is open,
// what the search box filters, and how form submissions map onto the store.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"taskboard/models"
	"taskboard/store"
)

type Controller struct {
	store  *store.Store
	seed   bool
	now    func() time.Time
	form   *models.TaskForm
	query  string
	notice string
}

type Option func(*Controller)

// WithSeed controls whether an untouched store is filled with SampleTasks.
func WithSeed(seed bool) Option {
	return func(c *Controller) { c.seed = seed }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func New(s *store.Store, opts ...Option) *Controller {
	c := &Controller{store: s, seed: true, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load prepares the initial display. A store that is empty and whose revision
// is zero (never mutated, here or in a persisted past) gets the sample tasks.
func (c *Controller) Load() {
	if c.seed && c.store.Len() == 0 && c.store.Revision() == 0 {
		c.store.SetTasks(SampleTasks(c.now()))
	}
}

func (c *Controller) OpenAdd() {
	c.form = &models.TaskForm{Priority: models.PriorityMedium}
}

func (c *Controller) OpenEdit(id int) error {
	t, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("edit %d: %w", id, store.ErrNotFound)
	}
	c.form = &models.TaskForm{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
	}
	return nil
}

func (c *Controller) Close() {
	c.form = nil
}

// Form returns the open modal, or nil.
func (c *Controller) Form() *models.TaskForm {
	return c.form
}

func (c *Controller) Delete(id int) error {
	if err := c.store.Delete(id); err != nil {
		return err
	}
	c.notice = store.Notice(store.ChangeDeleted, models.Task{ID: id})
	return nil
}

func (c *Controller) Toggle(id int) error {
	t, err := c.store.Toggle(id)
	if err != nil {
		return err
	}
	c.notice = store.Notice(store.ChangeToggled, t)
	return nil
}

// Save applies a submitted form. With an id it edits that task, keeping its
// id and creation time; without one it creates a task. On failure the form
// stays open carrying the error.
func (c *Controller) Save(f models.TaskForm) (models.Task, error) {
	in := models.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Completed:   f.Completed,
		Priority:    f.Priority,
	}

	var (
		t    models.Task
		err  error
		kind store.ChangeKind
	)
	if f.Editing() {
		kind = store.ChangeUpdated
		existing, ok := c.store.Get(f.ID)
		if !ok {
			err = fmt.Errorf("save %d: %w", f.ID, store.ErrNotFound)
		} else {
			existing.Title = in.Title
			existing.Description = in.Description
			existing.Completed = in.Completed
			existing.Priority = in.Priority
			t, err = c.store.Update(existing)
		}
	} else {
		kind = store.ChangeAdded
		t, err = c.store.Add(in)
	}

	if err != nil {
		f.Error = err.Error()
		c.form = &f
		return models.Task{}, err
	}
	c.form = nil
	c.notice = store.Notice(kind, t)
	return t, nil
}

func (c *Controller) Search(query string) {
	c.query = strings.TrimSpace(query)
}

// SetNotice overrides the message shown above the cards.
func (c *Controller) SetNotice(msg string) {
	c.notice = msg
}

func (c *Controller) Notice() string {
	return c.notice
}

func (c *Controller) View() models.PageData {
	all := c.store.Tasks()
	data := models.PageData{
		Tasks:      filter(all, c.query),
		Total:      len(all),
		Query:      c.query,
		Notice:     c.notice,
		Priorities: models.Priorities,
		Form:       c.form,
	}
	for _, t := range all {
		if t.Completed {
			data.Completed++
		}
	}
	return data
}

func filter(tasks []models.Task, query string) []models.Task {
	if query == "" {
		return tasks
	}
	q := strings.ToLower(query)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}
