package handlers

import "net/http"

// Routes returns the full HTTP surface: the JSON API under /api and the
// HTML dashboard.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", s.APILogin)
	mux.HandleFunc("POST /api/register", s.APIRegister)
	mux.Handle("POST /api/logout", s.requireAPI(s.APILogout))
	mux.Handle("GET /api/tasks", s.requireAPI(s.ListTasks))
	mux.Handle("POST /api/tasks", s.requireAPI(s.CreateTask))
	mux.Handle("GET /api/tasks/{id}", s.requireAPI(s.GetTask))
	mux.Handle("PUT /api/tasks/{id}", s.requireAPI(s.UpdateTask))
	mux.Handle("DELETE /api/tasks/{id}", s.requireAPI(s.DeleteTask))
	mux.Handle("PATCH /api/tasks/{id}/toggle", s.requireAPI(s.ToggleTask))

	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)
	mux.Handle("GET /dashboard", s.requirePage(s.Dashboard))
	mux.Handle("POST /dashboard/tasks", s.requirePage(s.DashboardSave))
	mux.Handle("POST /dashboard/tasks/{id}/delete", s.requirePage(s.DashboardDelete))
	mux.Handle("POST /dashboard/tasks/{id}/toggle", s.requirePage(s.DashboardToggle))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	return LogRequests(mux)
}
