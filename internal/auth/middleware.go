package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ahsanfayaz52/notesservice/internal/models"
)

type key int

const userKey key = 0

const CookieName = "token"

// JWTMiddleware rejects requests without a valid session. Page loads are sent
// to the login form; anything else gets 401.
func JWTMiddleware(jwtService *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				unauthenticated(w, r)
				return
			}

			user, err := jwtService.ValidateToken(cookie.Value)
			if err != nil {
				unauthenticated(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// LoginURL builds the login link that returns to dest afterwards.
func LoginURL(dest string) string {
	return "/login?next=" + url.QueryEscape(dest)
}

func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	if !ok || user.ID == 0 {
		return models.User{}, false
	}
	return user, true
}
