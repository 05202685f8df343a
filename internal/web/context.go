package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/agentstats/internal/core"
	"github.com/JonMunkholm/agentstats/internal/logging"
)

// TeamHeader carries the owner scope of every API request.
const TeamHeader = "X-Team-ID"

const maxTeamIDLen = 128

var errMissingTeam = fmt.Errorf("%w: %s header is required", core.ErrValidation, TeamHeader)

// requireTeam rejects requests without a team id and stores it in the
// request context for handlers and logs.
func (s *Server) requireTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		team := strings.TrimSpace(r.Header.Get(TeamHeader))
		if team == "" || len(team) > maxTeamIDLen {
			s.respondError(w, r, errMissingTeam, http.StatusBadRequest)
			return
		}
		ctx := logging.WithTeam(r.Context(), team)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// teamID returns the team stored by requireTeam.
func teamID(r *http.Request) string {
	return logging.TeamFromContext(r.Context())
}
