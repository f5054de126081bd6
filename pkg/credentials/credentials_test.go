package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tmarkert/skyquery/pkg/errors"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := newStore(t)

	if tok, err := s.Get("ads"); err != nil || tok != "" {
		t.Fatalf("Get() before Set = %q, %v; want empty, nil", tok, err)
	}

	if err := s.Set("ads", "secret-token"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	tok, err := s.Get("ads")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if tok != "secret-token" {
		t.Errorf("Get() = %q, want secret-token", tok)
	}

	if err := s.Delete("ads"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if tok, _ := s.Get("ads"); tok != "" {
		t.Errorf("Get() after Delete = %q, want empty", tok)
	}
	if err := s.Delete("ads"); err != nil {
		t.Errorf("Delete() of absent token error = %v, want nil", err)
	}
}

func TestFilePermissions(t *testing.T) {
	s := newStore(t)
	if err := s.Set("mast", "tok"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
}

func TestServiceNamesNormalized(t *testing.T) {
	s := newStore(t)
	if err := s.Set("  MAST ", "tok"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	tok, err := s.Get("mast")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if tok != "tok" {
		t.Errorf("Get(mast) = %q, want tok", tok)
	}
}

func TestEnvOverride(t *testing.T) {
	s := newStore(t)
	if err := s.Set("ads", "file-token"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	t.Setenv("ADS_TOKEN", "env-token")
	tok, err := s.Get("ads")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if tok != "env-token" {
		t.Errorf("Get() = %q, want the environment override", tok)
	}

	t.Setenv("ADS_TOKEN", "")
	if tok, _ := s.Get("ads"); tok != "file-token" {
		t.Errorf("Get() with empty env = %q, want file-token", tok)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	want := filepath.Join("skyquery", "credentials.json")
	if !strings.HasSuffix(s.Path(), want) {
		t.Errorf("Path() = %q, want suffix %q", s.Path(), want)
	}
}

func TestValidation(t *testing.T) {
	s := newStore(t)
	if err := s.Set("", "tok"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Set with empty service error = %v, want INVALID_INPUT", err)
	}
	if err := s.Set("ads", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Set with empty token error = %v, want INVALID_INPUT", err)
	}
	if _, err := s.Get(" "); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Get with blank service error = %v, want INVALID_INPUT", err)
	}
}

func TestCorruptFile(t *testing.T) {
	s := newStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("ads"); err == nil {
		t.Error("Get() on corrupt file error = nil, want parse failure")
	}
}
