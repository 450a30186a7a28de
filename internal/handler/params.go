package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BuzzLyutic/project-tracker-api/internal/apperr"
)

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.InvalidInput, "Invalid %s.", name)
	}
	return id, nil
}

// parseDueDate принимает дату (2006-01-02) или RFC 3339.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, *raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.New(apperr.InvalidInput, "Invalid due_date, expected YYYY-MM-DD.")
}
