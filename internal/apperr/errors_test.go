package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("missing"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusConflict},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{NotFound("gone"), http.StatusNotFound},
		{Internal("boom", errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("gone")), http.StatusNotFound},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Fatalf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestInternalKeepsCauseButHidesIt(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("Could not create task", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected Internal error to unwrap to its cause")
	}
	if msg := PublicMessage(err); msg != "Could not create task" {
		t.Fatalf("unexpected public message: %q", msg)
	}
	if msg := PublicMessage(errors.New("secret detail")); msg != "Internal server error" {
		t.Fatalf("unknown errors must not leak details, got %q", msg)
	}
}

func TestIs(t *testing.T) {
	if !Is(Unauthorized("x"), KindUnauthorized) {
		t.Fatal("expected KindUnauthorized")
	}
	if Is(nil, KindInternal) {
		t.Fatal("nil must not match any kind")
	}
}
