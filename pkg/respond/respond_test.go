package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     any
		wantBody map[string]any
	}{
		{
			name: "task payload",
			code: http.StatusOK,
			data: struct {
				ID      int64  `json:"id"`
				Status  string `json:"status"`
				Version int    `json:"version"`
			}{ID: 5, Status: "in_progress", Version: 4},
			wantBody: map[string]any{"id": float64(5), "status": "in_progress", "version": float64(4)}, // числа декодируются как float64
		},
		{
			name:     "project created",
			code:     http.StatusCreated,
			data:     map[string]any{"id": 12, "name": "Tracker", "description": nil},
			wantBody: map[string]any{"id": float64(12), "name": "Tracker", "description": nil},
		},
		{
			name:     "health",
			code:     http.StatusOK,
			data:     map[string]string{"status": "ok"},
			wantBody: map[string]any{"status": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			JSON(w, r, tt.code, tt.data)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		kind    string
		message string
	}{
		{name: "conflict", code: http.StatusConflict, kind: "conflict", message: "Task was modified by someone else."},
		{name: "forbidden", code: http.StatusForbidden, kind: "forbidden", message: "You can only modify tasks assigned to you."},
		{name: "internal error without kind", code: http.StatusInternalServerError, message: "Internal server error."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			Fail(w, r, tt.code, tt.kind, tt.message)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Equal(t, "error", got["status"])
			assert.Equal(t, tt.message, got["message"])
			if tt.kind == "" {
				assert.NotContains(t, got, "kind")
			} else {
				assert.Equal(t, tt.kind, got["kind"])
			}
		})
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "resource not found")

	var got ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorBody{Status: "error", Message: "resource not found"}, got)
}
