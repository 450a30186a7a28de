// Package apperr описывает закрытый набор ошибок прикладного уровня.
// Каждая ошибка несет машиночитаемый вид (Kind) и сообщение для человека;
// отображение в HTTP статусы делается только в слое handler.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable failure category. It implements error so that
// callers can match with errors.Is(err, apperr.Conflict).
type Kind string

const (
	InvalidInput      Kind = "invalid_input"
	Unauthorized      Kind = "unauthorized"
	Forbidden         Kind = "forbidden"
	NotFound          Kind = "not_found"
	Conflict          Kind = "conflict"
	InvalidTransition Kind = "invalid_transition"
)

func (k Kind) Error() string { return string(k) }

// Error is a failure of a known kind with a human readable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or false for errors outside the taxonomy.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	var k Kind
	if errors.As(err, &k) {
		return k, true
	}
	return "", false
}

// Message returns the human readable part of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
