package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"taskboard/dashboard"
	"taskboard/models"
	"taskboard/store"
)

const flashCookie = "flash"

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*dashboard.Controller, bool) {
	st, err := s.stores.For(sessionFrom(r.Context()).UserID)
	if err != nil {
		log.Println("Error loading tasks:", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	c := dashboard.New(st, dashboard.WithSeed(s.seed))
	c.Load()
	return c, true
}

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	c.Search(q.Get("q"))
	if msg := s.takeFlash(w, r); msg != "" {
		c.SetNotice(msg)
	}
	switch {
	case q.Get("edit") != "":
		id, err := strconv.Atoi(q.Get("edit"))
		if err == nil {
			err = c.OpenEdit(id)
		}
		if err != nil {
			c.SetNotice("That task no longer exists.")
		}
	case q.Get("add") != "":
		c.OpenAdd()
	}

	s.renderDashboard(w, r, c, http.StatusOK)
}

func (s *Server) DashboardSave(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	form := models.TaskForm{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Completed:   r.FormValue("completed") == "true",
		Priority:    models.Priority(r.FormValue("priority")),
	}
	if v := r.FormValue("id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid task ID", http.StatusBadRequest)
			return
		}
		form.ID = id
	}

	if _, err := c.Save(form); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		s.renderDashboard(w, r, c, status)
		return
	}
	s.redirectWithFlash(w, r, c.Notice())
}

func (s *Server) DashboardDelete(w http.ResponseWriter, r *http.Request) {
	s.dashboardAction(w, r, (*dashboard.Controller).Delete)
}

func (s *Server) DashboardToggle(w http.ResponseWriter, r *http.Request) {
	s.dashboardAction(w, r, (*dashboard.Controller).Toggle)
}

func (s *Server) dashboardAction(w http.ResponseWriter, r *http.Request, action func(*dashboard.Controller, int) error) {
	id, err := taskID(r)
	if err != nil {
		http.Error(w, "Invalid task ID", http.StatusBadRequest)
		return
	}
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := action(c, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Println("Error updating task:", err)
		}
		s.redirectWithFlash(w, r, "That task no longer exists.")
		return
	}
	s.redirectWithFlash(w, r, c.Notice())
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, c *dashboard.Controller, status int) {
	data := c.View()
	data.IsLoggedIn = true
	data.Email = sessionFrom(r.Context()).Email
	s.render(w, status, "dashboard.html", data)
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, msg string) {
	if msg != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    url.QueryEscape(msg),
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteStrictMode,
			Path:     "/dashboard",
			MaxAge:   60,
		})
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// takeFlash returns and clears the one-shot notice left by the previous action.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/dashboard", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
