package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody - тело ответа об ошибке.
type ErrorBody struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, r *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	Fail(w, r, code, "", message)
}

// Fail writes an error body tagged with a machine-readable kind.
func Fail(w http.ResponseWriter, r *http.Request, code int, kind, message string) {
	JSON(w, r, code, ErrorBody{Status: "error", Kind: kind, Message: message})
}
