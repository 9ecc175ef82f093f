package session

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sakif/playground-cli/internal/apperror"
)

// MinPasswordLength applies on sign-up only; sign-in accepts whatever the
// account was created with.
const MinPasswordLength = 6

// emailPattern is deliberately loose: anything@anything.anything. Real
// validation happens server-side; this only catches obvious typos before
// spending a round trip.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// FieldErrors maps form field names to their validation messages. It is the
// error value Login returns for local validation failures, and it satisfies
// errors.Is(err, apperror.ErrValidation).
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fe))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return apperror.ErrValidation }

// Validate checks the credential shape before any network call. An empty
// result means the form may be submitted.
//
// The messages are the exact strings the product shows next to each field.
func Validate(creds Credentials, signUp bool) FieldErrors {
	errs := FieldErrors{}

	if signUp && strings.TrimSpace(creds.Username) == "" {
		errs["username"] = "Username is required"
	}

	email := strings.TrimSpace(creds.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Please enter a valid email"
	}

	switch {
	case strings.TrimSpace(creds.Password) == "":
		errs["password"] = "Password is required"
	case signUp && len(creds.Password) < MinPasswordLength:
		errs["password"] = "Password must be at least 6 characters long"
	}

	return errs
}

// Form holds the auth form state: the sign-up/sign-in mode, the field
// values, and the field errors from the last failed submit.
type Form struct {
	SignUp   bool
	Username string
	Email    string
	Password string
	Errors   FieldErrors
}

// NewForm returns an empty sign-in form.
func NewForm() *Form {
	return &Form{Errors: FieldErrors{}}
}

// ToggleMode switches between sign-in and sign-up. All field values and all
// errors are cleared — the two modes never leak state into each other, and
// toggling twice lands on a pristine form.
func (f *Form) ToggleMode() {
	f.SignUp = !f.SignUp
	f.Username = ""
	f.Email = ""
	f.Password = ""
	f.Errors = FieldErrors{}
}

// SetField updates one field and clears its error, matching the
// clear-on-typing behavior of the form.
func (f *Form) SetField(name, value string) {
	switch name {
	case "username":
		f.Username = value
	case "email":
		f.Email = value
	case "password":
		f.Password = value
	}
	delete(f.Errors, name)
}

// Credentials returns the current field values for submission.
func (f *Form) Credentials() Credentials {
	return Credentials{
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
	}
}

// Submit validates the form in place. It returns true when the form is
// clean and ready to send; on failure the field errors are recorded.
func (f *Form) Submit() bool {
	f.Errors = Validate(f.Credentials(), f.SignUp)
	return len(f.Errors) == 0
}
