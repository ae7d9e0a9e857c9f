package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/auth"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

type ctxKey int

const actorKey ctxKey = 0

// withActor authenticates the request via the bearer token and stores the
// resulting actor in the request context.
func (s *Server) withActor(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get(common.AuthHeaderName)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			s.writeError(w, r, common.ErrUnauthorized)
			return
		}

		actor, err := auth.ActorFromToken(token, s.jwtSecret)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next(w, r.WithContext(ctx))
	})
}

func actorFromContext(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorKey).(models.Actor)
	return actor
}
