package session

import (
	"errors"
	"testing"

	"github.com/sakif/playground-cli/internal/apperror"
)

func TestValidate_SignUpMissingUsername(t *testing.T) {
	errs := Validate(Credentials{Email: "a@b.com", Password: "abcdef"}, true)

	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	if errs["username"] != "Username is required" {
		t.Errorf("username error = %q, want %q", errs["username"], "Username is required")
	}
}

func TestValidate_SignInIgnoresUsername(t *testing.T) {
	// Sign-in has no username field; its absence must not fail validation.
	errs := Validate(Credentials{Email: "a@b.com", Password: "x"}, false)
	if len(errs) != 0 {
		t.Errorf("got errors %v, want none", errs)
	}
}

func TestValidate_EmailRules(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"empty", "", "Email is required"},
		{"whitespace", "   ", "Email is required"},
		{"no at sign", "nobody.example.com", "Please enter a valid email"},
		{"no domain dot", "nobody@example", "Please enter a valid email"},
		{"valid", "nobody@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(Credentials{Email: tt.email, Password: "abcdef"}, false)
			if errs["email"] != tt.want {
				t.Errorf("email error = %q, want %q", errs["email"], tt.want)
			}
		})
	}
}

func TestValidate_PasswordRules(t *testing.T) {
	// Short passwords are a sign-up problem only — existing accounts may
	// predate the rule.
	errs := Validate(Credentials{Username: "u", Email: "a@b.com", Password: "abc"}, true)
	if errs["password"] != "Password must be at least 6 characters long" {
		t.Errorf("password error = %q, want length message", errs["password"])
	}

	errs = Validate(Credentials{Email: "a@b.com", Password: "abc"}, false)
	if len(errs) != 0 {
		t.Errorf("sign-in with short password: got errors %v, want none", errs)
	}

	errs = Validate(Credentials{Email: "a@b.com", Password: "   "}, false)
	if errs["password"] != "Password is required" {
		t.Errorf("password error = %q, want required message", errs["password"])
	}
}

func TestFieldErrors_IsValidation(t *testing.T) {
	errs := Validate(Credentials{}, true)
	if !errors.Is(errs, apperror.ErrValidation) {
		t.Error("FieldErrors should classify as ErrValidation")
	}
}

func TestForm_ToggleModeResetsEverything(t *testing.T) {
	f := NewForm()
	f.SignUp = true
	f.SetField("email", "someone@example.com")
	f.SetField("password", "hunter2")
	f.Submit() // username missing → error recorded
	if len(f.Errors) == 0 {
		t.Fatal("setup: expected validation errors before toggling")
	}

	f.ToggleMode()

	if f.Username != "" || f.Email != "" || f.Password != "" {
		t.Error("toggle should clear all field values")
	}
	if len(f.Errors) != 0 {
		t.Errorf("toggle should clear errors, got %v", f.Errors)
	}

	// Toggling is an idempotent reset: flipping again lands on a form just
	// as pristine, only the mode differs.
	f.ToggleMode()
	if f.Username != "" || f.Email != "" || f.Password != "" || len(f.Errors) != 0 {
		t.Error("second toggle should leave a pristine form")
	}
	if f.SignUp {
		t.Error("two toggles should restore sign-in mode")
	}
}

func TestForm_SetFieldClearsThatError(t *testing.T) {
	f := NewForm()
	f.SignUp = true
	f.Submit()
	if f.Errors["email"] == "" || f.Errors["username"] == "" {
		t.Fatal("setup: expected email and username errors")
	}

	f.SetField("email", "a@b.com")

	if f.Errors["email"] != "" {
		t.Error("typing into a field should clear its error")
	}
	if f.Errors["username"] == "" {
		t.Error("other fields' errors should survive")
	}
}

func TestForm_SubmitReportsReadiness(t *testing.T) {
	f := NewForm()
	f.SetField("email", "a@b.com")
	f.SetField("password", "abcdef")

	if !f.Submit() {
		t.Errorf("valid sign-in form should submit, errors: %v", f.Errors)
	}
}
