package server

import (
	"net/http"
	"time"
)

const tokenCookieName = "bexp_token"

// requireToken checks for a valid admin token in the query param or cookie.
// A valid query token is exchanged for a cookie so links can be shared once
// and then dropped from the URL.
func (s *Server) requireToken(w http.ResponseWriter, r *http.Request) bool {
	queryToken := r.URL.Query().Get("token")
	if queryToken != "" {
		if queryToken == s.token {
			http.SetCookie(w, &http.Cookie{
				Name:     tokenCookieName,
				Value:    s.token,
				Path:     "/",
				HttpOnly: true,
				MaxAge:   int(24 * time.Hour / time.Second),
				SameSite: http.SameSiteLaxMode,
			})
			return true
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}

	cookie, err := r.Cookie(tokenCookieName)
	if err != nil || cookie.Value != s.token {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}

	return true
}
