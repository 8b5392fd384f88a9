package api

import (
	"net/http"
	"strings"

	"github.com/listenupapp/librarian/internal/auth"
	domainerrors "github.com/listenupapp/librarian/internal/errors"
	"github.com/listenupapp/librarian/internal/http/response"
)

const bearerPrefix = "bearer "

// withViewer builds the per-request auth context. Requests without a bearer
// token continue anonymously; a token that fails verification ends the
// request with 401 before any resolver runs.
func (s *Server) withViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			classified, known := domainerrors.Classify(err)
			if !known {
				s.logger.Error("Failed to authenticate request", "error", err)
			}
			response.GraphQLFailure(w, classified, s.logger)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// bearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}
