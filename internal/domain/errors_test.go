package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "user not found", err: ErrUserNotFound, want: true},
		{name: "order not found", err: ErrOrderNotFound, want: true},
		{name: "wrapped", err: fmt.Errorf("select: %w", ErrOrderNotFound), want: true},
		{name: "conflict", err: ErrEmailConflict, want: false},
		{name: "store error", err: &StoreError{Op: "find", Err: errors.New("boom")}, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Fatalf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStoreError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("service: %w", &StoreError{Op: "save user", Err: cause})

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatal("expected StoreError in chain")
	}
	if storeErr.Op != "save user" {
		t.Fatalf("unexpected op %q", storeErr.Op)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable via errors.Is")
	}
	if storeErr.Error() != "store save user: connection refused" {
		t.Fatalf("unexpected message %q", storeErr.Error())
	}
}

func TestIsValidation(t *testing.T) {
	reason, ok := IsValidation(fmt.Errorf("create: %w", &ValidationError{Reason: ReasonEmailRequired}))
	if !ok || reason != ReasonEmailRequired {
		t.Fatalf("expected validation reason, got %q ok=%v", reason, ok)
	}

	if _, ok := IsValidation(ErrUserNotFound); ok {
		t.Fatal("not found must not be reported as validation error")
	}
}
