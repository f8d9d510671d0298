package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/forgo/worship/api/internal/model"
)

// UUIDParams rejects the request with 400 when any of the named path
// parameters is present but not a UUID.
func UUIDParams(names ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, name := range names {
				v := r.PathValue(name)
				if v == "" {
					continue
				}
				if _, err := uuid.Parse(v); err != nil {
					model.NewBadRequestError("path parameter " + name + " must be a UUID").WriteJSON(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
