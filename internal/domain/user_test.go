package domain

import (
	"errors"
	"testing"
)

func strPtr(v string) *string { return &v }
func int64Ptr(v int64) *int64 { return &v }

func validUserInput() UserInput {
	return UserInput{
		Name:    strPtr("Alice"),
		Address: strPtr("1 Main St"),
		Phone:   int64Ptr(555),
		Email:   strPtr("a@x.com"),
	}
}

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *UserInput)
		want   string
	}{
		{name: "valid", mutate: func(*UserInput) {}, want: ""},
		{name: "missing name", mutate: func(in *UserInput) { in.Name = nil }, want: ReasonNameRequired},
		{name: "empty name", mutate: func(in *UserInput) { in.Name = strPtr("") }, want: ReasonNameRequired},
		{name: "digits in name", mutate: func(in *UserInput) { in.Name = strPtr("Alice2") }, want: ReasonNameAlphabetic},
		{name: "space in name", mutate: func(in *UserInput) { in.Name = strPtr("Alice Smith") }, want: ReasonNameAlphabetic},
		{name: "non ascii name", mutate: func(in *UserInput) { in.Name = strPtr("Алиса") }, want: ReasonNameAlphabetic},
		{name: "missing address", mutate: func(in *UserInput) { in.Address = nil }, want: ReasonAddressRequired},
		{name: "empty address is present", mutate: func(in *UserInput) { in.Address = strPtr("") }, want: ""},
		{name: "missing phone", mutate: func(in *UserInput) { in.Phone = nil }, want: ReasonPhoneRequired},
		{name: "zero phone is present", mutate: func(in *UserInput) { in.Phone = int64Ptr(0) }, want: ""},
		{name: "missing email", mutate: func(in *UserInput) { in.Email = nil }, want: ReasonEmailRequired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validUserInput()
			tc.mutate(&in)

			err := ValidateUser(in)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected valid input, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Reason != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, verr.Reason)
			}
		})
	}
}

func TestValidateUser_NameCheckedFirst(t *testing.T) {
	inputs := []UserInput{
		{},
		{Address: strPtr("1 Main St")},
		{Phone: int64Ptr(1), Email: strPtr("a@x.com")},
		{Name: strPtr(""), Address: nil, Phone: nil, Email: nil},
	}

	for _, in := range inputs {
		reason, ok := IsValidation(ValidateUser(in))
		if !ok || reason != ReasonNameRequired {
			t.Fatalf("expected %q for %+v, got %q (ok=%v)", ReasonNameRequired, in, reason, ok)
		}
	}
}

func TestUserInputApply_KeepsID(t *testing.T) {
	in := validUserInput()
	got := in.Apply(User{ID: 42, Name: "Old", Address: "old", Phone: 1, Email: "old@x.com"})

	if got.ID != 42 {
		t.Fatalf("expected id 42, got %d", got.ID)
	}
	if got.Name != "Alice" || got.Address != "1 Main St" || got.Phone != 555 || got.Email != "a@x.com" {
		t.Fatalf("unexpected user after apply: %+v", got)
	}
}
