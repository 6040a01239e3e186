package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"taskboard/models"
	"taskboard/store"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// userStore returns the store of the authenticated user, writing a 500 on failure.
func (s *Server) userStore(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	session := sessionFrom(r.Context())
	st, err := s.stores.For(session.UserID)
	if err != nil {
		log.Println("Error loading tasks for user:", session.UserID, ": ", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return st, true
}

type listFilter struct {
	completed *bool
	priority  models.Priority
	limit     int
	offset    int
}

func parseListFilter(r *http.Request) (listFilter, error) {
	q := r.URL.Query()
	f := listFilter{limit: defaultLimit}

	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.completed = &b
	}
	if v := q.Get("priority"); v != "" {
		p, err := models.ParsePriority(v)
		if err != nil {
			return f, err
		}
		f.priority = p
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			return f, strconv.ErrRange
		}
		f.limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, strconv.ErrRange
		}
		f.offset = n
	}
	return f, nil
}

func (f listFilter) apply(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.completed != nil && t.Completed != *f.completed {
			continue
		}
		if f.priority != "" && t.Priority != f.priority {
			continue
		}
		out = append(out, t)
	}
	if f.offset >= len(out) {
		return []models.Task{}
	}
	end := min(f.offset+f.limit, len(out))
	return out[f.offset:end]
}

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query: completed must be true/false, priority low/medium/high, limit 1-100, offset >= 0")
		return
	}
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, filter.apply(st.Tasks()))
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in models.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}
	t, err := st.Add(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}
	t, found := st.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// updatePayload accepts a full task record as well as a bare input. The id
// and createdAt it carries are ignored: the path id and the stored creation
// time win.
type updatePayload struct {
	models.TaskInput
	ID        json.RawMessage `json:"id,omitempty"`
	CreatedAt json.RawMessage `json:"createdAt,omitempty"`
}

func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body updatePayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in := body.TaskInput
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}
	t, err := st.Update(models.Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		Priority:    in.Priority,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}
	if err := st.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := s.userStore(w, r)
	if !ok {
		return
	}
	t, err := st.Toggle(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
