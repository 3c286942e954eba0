package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	notFound := NewNotFound("rule %q not found", "r1")
	conflict := NewConflict("etag mismatch")
	invalid := NewInvalidInput("bad input")

	if !IsNotFound(notFound) {
		t.Error("IsNotFound should match NotFoundError")
	}
	if IsNotFound(conflict) {
		t.Error("IsNotFound should not match ConflictError")
	}
	if !IsConflict(conflict) {
		t.Error("IsConflict should match ConflictError")
	}
	if !IsInvalidInput(invalid) {
		t.Error("IsInvalidInput should match InvalidInputError")
	}
}

func TestErrorPredicatesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("while deleting: %w", NewNotFound("gone"))
	if !IsNotFound(wrapped) {
		t.Error("Predicates should see through error wrapping")
	}
}

func TestDependencyErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	dep := NewDependency(cause, "storage adapter request failed")

	if !errors.Is(dep, cause) {
		t.Error("DependencyError should unwrap to its cause")
	}

	statusErr := NewDependencyStatus(502, "bad gateway", "unexpected response")
	if statusErr.Status != 502 {
		t.Errorf("Status = %d, want 502", statusErr.Status)
	}
	if statusErr.Body != "bad gateway" {
		t.Errorf("Body = %q", statusErr.Body)
	}
}
