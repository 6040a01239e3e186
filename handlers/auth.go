package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"taskboard/client"
	"taskboard/models"
	"taskboard/utils"
)

// startSession authenticates the credentials and stores a new session.
func (s *Server) startSession(r *http.Request, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Session{}, utils.ErrInvalidCredentials
	}
	log.Printf("Login attempt for email: %s", email)

	user, err := s.users.Authenticate(r.Context(), email, password)
	if err != nil {
		return models.Session{}, err
	}
	session, err := utils.NewSession(user, s.sessionTTL, utils.GetUserAgent(r), utils.GetIP(r))
	if err != nil {
		return models.Session{}, err
	}
	if err := utils.StoreSession(r.Context(), s.redis, session, s.sessionTTL); err != nil {
		return models.Session{}, err
	}
	if n, err := utils.CountUserSessions(r.Context(), s.redis, session.UserID); err == nil {
		log.Printf("Login successful for user: %s (%d active sessions)", email, n)
	}
	return session, nil
}

func (s *Server) endSession(r *http.Request) {
	token := utils.BearerToken(r)
	if token == "" {
		return
	}
	if err := utils.DeleteSession(r.Context(), s.redis, token); err != nil {
		log.Printf("Failed to delete session: %v", err)
	}
}

func (s *Server) APILogin(w http.ResponseWriter, r *http.Request) {
	var creds client.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.startSession(r, creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		log.Println("Login failed: ", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	expiresAt, err := session.Expiry()
	if err != nil {
		log.Println("Login failed: ", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, client.LoginResponse{Token: session.Token, ExpiresAt: expiresAt})
}

// APILogout ends the caller's session, or every session of the user with ?all=true.
func (s *Server) APILogout(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		userID := sessionFrom(r.Context()).UserID
		if err := utils.DeleteAllUserSessions(r.Context(), s.redis, userID); err != nil {
			log.Println("Error deleting sessions:", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.endSession(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) APIRegister(w http.ResponseWriter, r *http.Request) {
	if s.registrar == nil {
		writeError(w, http.StatusNotFound, utils.ErrRegistrationClosed.Error())
		return
	}
	var creds client.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if err := utils.ValidateEmail(creds.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if err := utils.ValidatePassword(creds.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.registrar.Register(r.Context(), creds.Email, creds.Password); err != nil {
		switch {
		case errors.Is(err, utils.ErrEmailInUse):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, utils.ErrRegistrationClosed):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			log.Println("add user error: ", err, " user: ", creds.Email)
			writeError(w, http.StatusInternalServerError, "error creating account")
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type loginPage struct {
	Email string
	Error string
}

func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	// Only a browser that already holds a session cookie can skip the form.
	if utils.CookieExists(r, utils.SessionCookie) {
		if _, err := s.authenticate(r); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}
	s.render(w, http.StatusOK, "login.html", loginPage{})
}

func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	session, err := s.startSession(r, email, r.FormValue("password"))
	if err != nil {
		status, msg := http.StatusUnauthorized, "invalid email or password"
		if !errors.Is(err, utils.ErrInvalidCredentials) {
			log.Println("Login failed: ", err)
			status, msg = http.StatusInternalServerError, "internal error. try again."
		}
		s.render(w, status, "login.html", loginPage{Email: email, Error: msg})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     utils.SessionCookie,
		Value:    session.Token,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.endSession(r)
	http.SetCookie(w, &http.Cookie{
		Name:     utils.SessionCookie,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := s.pages[page]
	if !ok {
		log.Println("Error loading template:", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.Println("Error rendering template:", err)
	}
}
