package models

// PageData is everything the dashboard template renders.
type PageData struct {
	Tasks      []Task
	Total      int
	Completed  int
	Query      string
	Notice     string
	Priorities []Priority
	Form       *TaskForm
	IsLoggedIn bool
	Email      string
}

// TaskForm is the add/edit modal. ID is zero when adding.
type TaskForm struct {
	ID          int
	Title       string
	Description string
	Completed   bool
	Priority    Priority
	Error       string
}

func (f TaskForm) Editing() bool {
	return f.ID != 0
}
