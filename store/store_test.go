package store_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"taskboard/models"
	"taskboard/store"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newStore(opts ...store.Option) *store.Store {
	opts = append([]store.Option{store.WithClock(func() time.Time { return fixedNow })}, opts...)
	return store.New(opts...)
}

func mustAdd(t *testing.T, s *store.Store, title string, p models.Priority) models.Task {
	t.Helper()
	task, err := s.Add(models.TaskInput{Title: title, Priority: p})
	if err != nil {
		t.Fatalf("Add(%q) error = %v", title, err)
	}
	return task
}

func TestAddAssignsNextID(t *testing.T) {
	tests := []struct {
		name     string
		existing []models.Task
		want     int
	}{
		{
			name: "Empty store starts at 1",
			want: 1,
		},
		{
			name: "Contiguous ids continue from the max",
			existing: []models.Task{
				{ID: 1, Title: "a", Priority: models.PriorityLow},
				{ID: 2, Title: "b", Priority: models.PriorityLow},
			},
			want: 3,
		},
		{
			name: "Gaps are not filled",
			existing: []models.Task{
				{ID: 7, Title: "a", Priority: models.PriorityLow},
				{ID: 3, Title: "b", Priority: models.PriorityLow},
			},
			want: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(store.WithTasks(tt.existing))
			got := mustAdd(t, s, "new", models.PriorityMedium)
			if got.ID != tt.want {
				t.Errorf("Add() id = %d, want %d", got.ID, tt.want)
			}
			if !got.CreatedAt.Equal(fixedNow) {
				t.Errorf("Add() createdAt = %v, want %v", got.CreatedAt, fixedNow)
			}
			if got.Completed {
				t.Error("Add() should default completed to false")
			}
		})
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input models.TaskInput
	}{
		{name: "Empty title", input: models.TaskInput{Title: "", Priority: models.PriorityLow}},
		{name: "Blank title", input: models.TaskInput{Title: "   ", Priority: models.PriorityLow}},
		{name: "Missing priority", input: models.TaskInput{Title: "A"}},
		{name: "Unknown priority", input: models.TaskInput{Title: "A", Priority: "urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore()
			calls := 0
			s.Subscribe(func(store.Change) { calls++ })

			_, err := s.Add(tt.input)
			if !errors.Is(err, models.ErrInvalidTask) {
				t.Fatalf("Add() error = %v, want ErrInvalidTask", err)
			}
			if s.Len() != 0 || calls != 0 || s.Revision() != 0 {
				t.Errorf("invalid Add changed the store: len=%d calls=%d rev=%d", s.Len(), calls, s.Revision())
			}
		})
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s := newStore()
	a := mustAdd(t, s, "A", models.PriorityLow)
	b := mustAdd(t, s, "B", models.PriorityHigh)
	c := mustAdd(t, s, "C", models.PriorityMedium)

	if err := s.Delete(b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got := s.Tasks()
	want := []models.Task{a, c}
	if len(got) != len(want) {
		t.Fatalf("Tasks() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tasks()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestToggleRoundTrip(t *testing.T) {
	s := newStore()
	orig := mustAdd(t, s, "A", models.PriorityLow)

	first, err := s.Toggle(orig.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if first.Completed == orig.Completed {
		t.Error("first Toggle() should flip completed")
	}

	if _, err := s.Toggle(orig.ID); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	got, _ := s.Get(orig.ID)
	if got != orig {
		t.Errorf("after two toggles got %+v, want %+v", got, orig)
	}
}

func TestUpdatePreservesIdentity(t *testing.T) {
	s := newStore()
	orig := mustAdd(t, s, "A", models.PriorityLow)

	got, err := s.Update(models.Task{
		ID:          orig.ID,
		Title:       "A renamed",
		Description: "details",
		Completed:   true,
		Priority:    models.PriorityHigh,
		CreatedAt:   fixedNow.Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ID != orig.ID || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("Update() changed identity: got id=%d createdAt=%v", got.ID, got.CreatedAt)
	}
	stored, _ := s.Get(orig.ID)
	if stored.Title != "A renamed" || !stored.Completed || stored.Priority != models.PriorityHigh {
		t.Errorf("Update() did not replace fields: %+v", stored)
	}
}

func TestMissingIDReturnsNotFound(t *testing.T) {
	s := newStore()
	mustAdd(t, s, "A", models.PriorityLow)

	calls := 0
	s.Subscribe(func(store.Change) { calls++ })

	ops := map[string]func() error{
		"update": func() error {
			_, err := s.Update(models.Task{ID: 42, Title: "x", Priority: models.PriorityLow})
			return err
		},
		"delete": func() error { return s.Delete(42) },
		"toggle": func() error {
			_, err := s.Toggle(42)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			if err := op(); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("%s error = %v, want ErrNotFound", name, err)
			}
		})
	}
	if calls != 0 {
		t.Errorf("listener called %d times for no-op operations", calls)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSubscribeOncePerOperation(t *testing.T) {
	s := newStore()
	var kinds []store.ChangeKind
	unsubscribe := s.Subscribe(func(c store.Change) { kinds = append(kinds, c.Kind) })

	task := mustAdd(t, s, "A", models.PriorityLow)
	if _, err := s.Update(models.Task{ID: task.ID, Title: "B", Priority: models.PriorityLow}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Toggle(task.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(task.ID); err != nil {
		t.Fatal(err)
	}
	s.SetTasks(nil)

	want := []store.ChangeKind{
		store.ChangeAdded, store.ChangeUpdated, store.ChangeToggled,
		store.ChangeDeleted, store.ChangeReplaced,
	}
	if len(kinds) != len(want) {
		t.Fatalf("listener calls = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("call %d kind = %s, want %s", i, kinds[i], want[i])
		}
	}

	unsubscribe()
	mustAdd(t, s, "C", models.PriorityLow)
	if len(kinds) != len(want) {
		t.Errorf("listener called after unsubscribe")
	}
}

func TestSubscribeDoesNotDeduplicate(t *testing.T) {
	s := newStore()
	calls := 0
	fn := func(store.Change) { calls++ }

	first := s.Subscribe(fn)
	s.Subscribe(fn)

	mustAdd(t, s, "A", models.PriorityLow)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}

	first()
	first()
	mustAdd(t, s, "B", models.PriorityLow)
	if calls != 3 {
		t.Errorf("calls = %d, want 3 after removing one registration", calls)
	}
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	s := newStore()
	var order []int
	for i := 1; i <= 3; i++ {
		s.Subscribe(func(store.Change) { order = append(order, i) })
	}
	mustAdd(t, s, "A", models.PriorityLow)

	for i, got := range order {
		if got != i+1 {
			t.Fatalf("order = %v, want [1 2 3]", order)
		}
	}
}

func TestChangeCarriesSnapshot(t *testing.T) {
	s := newStore()
	var last store.Change
	s.Subscribe(func(c store.Change) { last = c })

	mustAdd(t, s, "A", models.PriorityLow)
	mustAdd(t, s, "B", models.PriorityLow)

	if len(last.Tasks) != 2 || last.Task.Title != "B" {
		t.Errorf("last change = %+v", last)
	}
	last.Tasks[0].Title = "mutated"
	if got, _ := s.Get(1); got.Title != "A" {
		t.Error("mutating a change snapshot leaked into the store")
	}
}

func TestTasksReturnsSnapshot(t *testing.T) {
	s := newStore()
	mustAdd(t, s, "A", models.PriorityLow)

	snap := s.Tasks()
	snap[0].Title = "changed"
	if got, _ := s.Get(1); got.Title != "A" {
		t.Error("Tasks() exposed internal state")
	}
}

func TestSetTasksCopiesInput(t *testing.T) {
	s := newStore()
	in := []models.Task{{ID: 5, Title: "A", Priority: models.PriorityLow}}
	s.SetTasks(in)
	in[0].Title = "changed"

	if got, _ := s.Get(5); got.Title != "A" {
		t.Error("SetTasks() kept a reference to the caller's slice")
	}
	if s.Revision() != 1 {
		t.Errorf("Revision() = %d, want 1", s.Revision())
	}
}

func TestNotifications(t *testing.T) {
	var got []string
	s := newStore(store.WithNotifier(func(n store.Notification) { got = append(got, n.Message) }))

	task := mustAdd(t, s, "A", models.PriorityLow)
	s.Toggle(task.ID)
	s.Toggle(task.ID)
	s.Update(models.Task{ID: task.ID, Title: "B", Priority: models.PriorityLow})
	s.Delete(task.ID)
	s.Delete(task.ID)

	want := []string{
		"Task added successfully!",
		"Task marked as complete!",
		"Task marked as incomplete!",
		"Task updated successfully!",
		"Task deleted successfully!",
	}
	if len(got) != len(want) {
		t.Fatalf("notifications = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScenario(t *testing.T) {
	s := newStore()

	a, err := s.Add(models.TaskInput{Title: "A", Priority: models.PriorityLow})
	if err != nil || a.ID != 1 {
		t.Fatalf("first Add() = %d, %v; want id 1", a.ID, err)
	}
	b, err := s.Add(models.TaskInput{Title: "B", Priority: models.PriorityHigh})
	if err != nil || b.ID != 2 {
		t.Fatalf("second Add() = %d, %v; want id 2", b.ID, err)
	}
	if err := s.Delete(1); err != nil {
		t.Fatal(err)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != 2 {
		t.Fatalf("after delete Tasks() = %+v, want only task 2", tasks)
	}
	s.Toggle(2)
	s.Toggle(2)
	if got, _ := s.Get(2); got.Completed != b.Completed {
		t.Errorf("task 2 completed = %v, want %v", got.Completed, b.Completed)
	}
}

func TestConcurrentAddsGetUniqueIDs(t *testing.T) {
	s := newStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(models.TaskInput{Title: "t", Priority: models.PriorityLow})
		}()
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, task := range s.Tasks() {
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
	}
	if len(seen) != 50 {
		t.Errorf("got %d tasks, want 50", len(seen))
	}
}

func TestRevisionResumesFromPersistedValue(t *testing.T) {
	s := store.New(store.WithRevision(41))

	var seen []uint64
	s.Subscribe(func(c store.Change) { seen = append(seen, c.Revision) })

	a := mustAdd(t, s, "A", models.PriorityLow)
	s.Toggle(a.ID)
	s.Delete(99)

	if s.Revision() != 43 {
		t.Errorf("Revision() = %d, want 43", s.Revision())
	}
	if len(seen) != 2 || seen[0] != 42 || seen[1] != 43 {
		t.Errorf("change revisions = %v, want [42 43]", seen)
	}
}
