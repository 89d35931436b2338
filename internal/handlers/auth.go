package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ahsanfayaz52/notesservice/internal/auth"
	"github.com/ahsanfayaz52/notesservice/internal/logger"
	"github.com/ahsanfayaz52/notesservice/internal/users"
)

func RegisterHandler(userStore *users.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			renderPage(w, log, http.StatusOK, "register.html", nil)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		nickname := strings.TrimSpace(r.FormValue("nickname"))
		password := r.FormValue("password")
		form := map[string]interface{}{"Email": email, "Nickname": nickname}

		if email == "" || nickname == "" || password == "" {
			form["Error"] = "Email, nickname and password are required"
			renderPage(w, log, http.StatusBadRequest, "register.html", form)
			return
		}

		hashed, err := auth.HashPassword(password)
		if err != nil {
			http.Error(w, "Error creating user", http.StatusInternalServerError)
			return
		}

		_, err = userStore.Create(r.Context(), email, nickname, hashed)
		if errors.Is(err, users.ErrDuplicate) {
			form["Error"] = "Email or nickname already registered"
			renderPage(w, log, http.StatusBadRequest, "register.html", form)
			return
		}
		if err != nil {
			log.Error("register failed", "error", err)
			http.Error(w, "Error creating user", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func LoginHandler(userStore *users.Store, jwtService *auth.JWTService, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := safeNext(r.FormValue("next"))

		if r.Method == http.MethodGet {
			renderPage(w, log, http.StatusOK, "login.html", map[string]interface{}{"Next": next})
			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")
		invalid := map[string]interface{}{
			"Error": "Invalid email or password",
			"Email": email, // Preserve the email so user doesn't have to retype
			"Next":  next,
		}

		user, err := userStore.ByEmail(r.Context(), email)
		if err != nil {
			if !errors.Is(err, users.ErrNotFound) {
				log.Error("login lookup failed", "error", err)
			}
			renderPage(w, log, http.StatusUnauthorized, "login.html", invalid)
			return
		}
		if !auth.CheckPassword(user.Password, password) {
			renderPage(w, log, http.StatusUnauthorized, "login.html", invalid)
			return
		}

		token, err := jwtService.GenerateToken(user)
		if err != nil {
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    token,
			HttpOnly: true,
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(auth.TokenTTL),
		})

		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    "",
			HttpOnly: true,
			Path:     "/",
			MaxAge:   -1,
		})

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func renderPage(w http.ResponseWriter, log *logger.Logger, status int, page string, data map[string]interface{}) {
	if err := render(w, status, page, data); err != nil {
		log.Error("template render error", "page", page, "error", err)
	}
}
