package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestToDomainErrorPassthrough(t *testing.T) {
	original := NewConflict("already reserved", map[string]any{"publication_id": int64(1)})
	mapped := ToDomainError(original)
	if mapped.Code != "CONFLICT" || mapped.HTTPStatus != http.StatusConflict {
		t.Fatalf("unexpected mapping: %+v", mapped)
	}
	if mapped.Details["publication_id"] != int64(1) {
		t.Fatalf("details lost in mapping: %v", mapped.Details)
	}
}

func TestToDomainErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NewValidationError("bad input", map[string]any{"title": "required"}))
	mapped := ToDomainError(wrapped)
	if mapped.Code != "VALIDATION_FAILED" || mapped.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected wrapped DomainError to surface, got %+v", mapped)
	}
}

func TestToDomainErrorNoRows(t *testing.T) {
	mapped := ToDomainError(fmt.Errorf("load: %w", pgx.ErrNoRows))
	if mapped.Code != "NOT_FOUND" || mapped.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected NOT_FOUND for pgx.ErrNoRows, got %+v", mapped)
	}
}

func TestToDomainErrorUnknown(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	if mapped.Code != "INTERNAL_ERROR" || mapped.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected INTERNAL_ERROR, got %+v", mapped)
	}
	if mapped.Err == nil {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestToDomainErrorNil(t *testing.T) {
	if ToDomainError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(NewConflict("c", nil)) {
		t.Fatalf("expected conflict to be detected")
	}
	if IsConflict(NewValidationError("v", nil)) {
		t.Fatalf("validation error is not a conflict")
	}
	if IsConflict(errors.New("plain")) {
		t.Fatalf("plain error is not a conflict")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	if !IsUniqueViolation(unique) {
		t.Fatalf("expected 23505 to be detected")
	}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", unique)) {
		t.Fatalf("expected wrapped 23505 to be detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestStorageErrorPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStorageError("reserve publication", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	mapped := ToDomainError(err)
	if mapped.Code != "STORAGE_ERROR" {
		t.Fatalf("expected STORAGE_ERROR, got %s", mapped.Code)
	}
}
