package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"taskboard/models"
	"taskboard/utils"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// LogRequests logs every request with its response status and duration.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

// authenticate resolves the request's bearer token or session cookie.
func (s *Server) authenticate(r *http.Request) (*models.Session, error) {
	token := utils.BearerToken(r)
	if token == "" {
		return nil, utils.ErrSessionNotFound
	}
	session, err := utils.GetSession(r.Context(), s.redis, token)
	if err != nil {
		return nil, err
	}
	utils.UpdateLastActivity(r.Context(), s.redis, token)
	return session, nil
}

func (s *Server) requireAPI(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.authenticate(r)
		if err != nil {
			if !errors.Is(err, utils.ErrSessionNotFound) {
				log.Println("Error validating session:", err)
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r.WithContext(withSession(r.Context(), session)))
	})
}

func (s *Server) requirePage(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.authenticate(r)
		if err != nil {
			if !errors.Is(err, utils.ErrSessionNotFound) {
				log.Println("Error validating session:", err)
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(withSession(r.Context(), session)))
	})
}
