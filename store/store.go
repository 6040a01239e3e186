// Package store holds the authoritative in-memory task list and notifies
// subscribers after every change.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"taskboard/models"
)

// ErrNotFound is returned when an operation targets an id that is not in the store.
var ErrNotFound = errors.New("task not found")

type ChangeKind string

const (
	ChangeReplaced ChangeKind = "replaced"
	ChangeAdded    ChangeKind = "added"
	ChangeUpdated  ChangeKind = "updated"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeToggled  ChangeKind = "toggled"
)

// Change describes one successful mutation. Tasks is the collection after it
// and Revision the store's revision counting it.
type Change struct {
	Kind     ChangeKind
	Task     models.Task
	Tasks    []models.Task
	Revision uint64
}

// Listener is called synchronously after every successful mutation.
// Listeners must not mutate the store they are subscribed to.
type Listener func(Change)

type listener struct {
	id uint64
	fn Listener
}

// Store is safe for concurrent use.
type Store struct {
	// dispatch serialises mutate-then-notify so listeners see changes in order.
	dispatch sync.Mutex

	mu        sync.RWMutex
	tasks     []models.Task
	listeners []listener
	nextSub   uint64
	revision  uint64

	now    func() time.Time
	notify Notifier
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithTasks sets the initial contents without notifying anyone.
func WithTasks(tasks []models.Task) Option {
	return func(s *Store) { s.tasks = slices.Clone(tasks) }
}

// WithRevision resumes the revision counter of a store restored from
// persistence, so a store that was emptied by its user is not mistaken for
// one that was never used.
func WithRevision(rev uint64) Option {
	return func(s *Store) { s.revision = rev }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		notify: func(Notification) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn and returns a function that removes this
// registration. Registering the same function twice yields two registrations.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool {
				return l.id == id
			})
		})
	}
}

// Tasks returns a snapshot of the collection.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}

func (s *Store) Get(id int) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Revision counts successful mutations, starting from the WithRevision value.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) SetTasks(tasks []models.Task) {
	s.mutate(func() (Change, error) {
		s.tasks = slices.Clone(tasks)
		return Change{Kind: ChangeReplaced}, nil
	})
}

func (s *Store) Add(in models.TaskInput) (models.Task, error) {
	if err := in.Validate(); err != nil {
		return models.Task{}, err
	}
	change, err := s.mutate(func() (Change, error) {
		t := models.Task{
			ID:          models.NextID(s.tasks),
			Title:       in.Title,
			Description: in.Description,
			Completed:   in.Completed,
			Priority:    in.Priority,
			CreatedAt:   s.now(),
		}
		s.tasks = append(s.tasks, t)
		return Change{Kind: ChangeAdded, Task: t}, nil
	})
	return change.Task, err
}

// Update replaces the task with the same id. The stored id and creation time
// are kept whatever t carries.
func (s *Store) Update(t models.Task) (models.Task, error) {
	if err := t.Validate(); err != nil {
		return models.Task{}, err
	}
	change, err := s.mutate(func() (Change, error) {
		i := s.indexOf(t.ID)
		if i < 0 {
			return Change{}, fmt.Errorf("update %d: %w", t.ID, ErrNotFound)
		}
		t.CreatedAt = s.tasks[i].CreatedAt
		s.tasks = slices.Clone(s.tasks)
		s.tasks[i] = t
		return Change{Kind: ChangeUpdated, Task: t}, nil
	})
	return change.Task, err
}

func (s *Store) Delete(id int) error {
	_, err := s.mutate(func() (Change, error) {
		i := s.indexOf(id)
		if i < 0 {
			return Change{}, fmt.Errorf("delete %d: %w", id, ErrNotFound)
		}
		removed := s.tasks[i]
		s.tasks = slices.Delete(slices.Clone(s.tasks), i, i+1)
		return Change{Kind: ChangeDeleted, Task: removed}, nil
	})
	return err
}

// Toggle flips the completed flag and returns the task in its new state.
func (s *Store) Toggle(id int) (models.Task, error) {
	change, err := s.mutate(func() (Change, error) {
		i := s.indexOf(id)
		if i < 0 {
			return Change{}, fmt.Errorf("toggle %d: %w", id, ErrNotFound)
		}
		t := s.tasks[i]
		t.Completed = !t.Completed
		s.tasks = slices.Clone(s.tasks)
		s.tasks[i] = t
		return Change{Kind: ChangeToggled, Task: t}, nil
	})
	return change.Task, err
}

// mutate applies fn under the write lock and, if it succeeds, notifies
// listeners in registration order followed by the notifier.
func (s *Store) mutate(fn func() (Change, error)) (Change, error) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	change, err := fn()
	if err != nil {
		s.mu.Unlock()
		return Change{}, err
	}
	s.revision++
	change.Revision = s.revision
	change.Tasks = slices.Clone(s.tasks)
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(change)
	}
	if msg := Notice(change.Kind, change.Task); msg != "" {
		s.notify(Notification{Kind: change.Kind, Task: change.Task, Message: msg})
	}
	return change, nil
}

func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool { return t.ID == id })
}
