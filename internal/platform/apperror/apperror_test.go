package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("register patient: %w", Conflict("duplicate cnic"))
	if KindOf(err) != KindConflict {
		t.Errorf("expected conflict, got %s", KindOf(err))
	}
	if !Is(err, KindConflict) {
		t.Error("expected Is(conflict) to be true")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if KindOf(errors.New("boom")) != KindUnknown {
		t.Error("expected unknown kind for plain error")
	}
}

func TestPersistence_HidesCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Persistence("failed to create patient", cause)
	if PublicMessage(err) != "failed to create patient" {
		t.Errorf("unexpected public message %q", PublicMessage(err))
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if PublicMessage(cause) != "internal server error" {
		t.Errorf("expected generic message for unclassified error, got %q", PublicMessage(cause))
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindPersistence, http.StatusInternalServerError},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := HTTPStatus(tt.kind); got != tt.want {
				t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}
