package credential

import "testing"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestToken_EmptyStore(t *testing.T) {
	s := openTestStore(t)

	token, err := s.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "" {
		t.Errorf("Token() = %q, want empty on fresh store", token)
	}
}

func TestSaveAndRead(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("tok-abc"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	token, err := s.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("Token() = %q, want %q", token, "tok-abc")
	}
}

func TestSave_ReplacesPrevious(t *testing.T) {
	s := openTestStore(t)

	s.Save("old")
	if err := s.Save("new"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	token, _ := s.Token()
	if token != "new" {
		t.Errorf("Token() = %q, want the replacement", token)
	}
}

func TestSave_RejectsEmpty(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(""); err == nil {
		t.Error("Save(\"\") should fail; Clear is the way to forget a token")
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)

	s.Save("tok")
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	token, _ := s.Token()
	if token != "" {
		t.Errorf("Token() = %q after Clear, want empty", token)
	}

	// Clearing an already empty store is a no-op, not an error.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}
