package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/forgo/worship/api/internal/model"
)

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// queryDate returns the named YYYY-MM-DD parameter, "" when absent. It writes
// a 422 and returns false when the value does not parse.
func queryDate(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", true
	}
	if _, err := time.Parse(model.DateLayout, v); err != nil {
		WriteError(w, model.NewFieldError(name, "must be a date in YYYY-MM-DD format"))
		return "", false
	}
	return v, true
}

// queryLimit parses a positive limit capped at max; def when absent.
func queryLimit(w http.ResponseWriter, r *http.Request, def, max int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > max {
		WriteError(w, model.NewFieldError("limit", "must be between 1 and "+strconv.Itoa(max)))
		return 0, false
	}
	return n, true
}
