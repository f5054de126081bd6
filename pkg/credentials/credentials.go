// Package credentials stores archive API tokens.
//
// Tokens live in a single credentials.json under the user config directory,
// readable only by the owner. Environment variables override the file, so
// scripted runs and CI can inject tokens without touching disk: ADS_TOKEN
// for the ads service, MAST_TOKEN for mast.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tmarkert/skyquery/pkg/errors"
)

// envOverrides maps service names to the environment variables consulted
// before the credentials file.
var envOverrides = map[string]string{
	"ads":  "ADS_TOKEN",
	"mast": "MAST_TOKEN",
}

// Store reads and writes the credentials file.
// All methods are safe for concurrent use within one process; the file
// itself is not locked against other processes.
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore creates a store backed by the credentials file at path.
// If path is empty, the default location under the user config directory
// is used. The file is created lazily on the first Set.
func NewStore(path string) (*Store, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "skyquery", "credentials.json")
	}
	return &Store{path: path}, nil
}

// Path returns the credentials file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the token for a service. An environment override wins over
// the file; a service with no token returns "" without error.
func (s *Store) Get(service string) (string, error) {
	service = normalize(service)
	if service == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "service name cannot be empty")
	}
	if env, ok := envOverrides[service]; ok {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	tokens, err := s.load()
	if err != nil {
		return "", err
	}
	return tokens[service], nil
}

// Set stores the token for a service. The file and its directory are
// created on first use, with owner-only permissions.
func (s *Store) Set(service, token string) error {
	service = normalize(service)
	if service == "" {
		return errors.New(errors.ErrCodeInvalidInput, "service name cannot be empty")
	}
	if token == "" {
		return errors.New(errors.ErrCodeInvalidInput, "token cannot be empty; use Delete to remove one")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tokens, err := s.load()
	if err != nil {
		return err
	}
	tokens[service] = token
	return s.save(tokens)
}

// Delete removes the token for a service. Deleting a token that is not
// stored is not an error.
func (s *Store) Delete(service string) error {
	service = normalize(service)
	if service == "" {
		return errors.New(errors.ErrCodeInvalidInput, "service name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tokens, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := tokens[service]; !ok {
		return nil
	}
	delete(tokens, service)
	return s.save(tokens)
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	tokens := map[string]string{}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return tokens, nil
}

func (s *Store) save(tokens map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}

func normalize(service string) string {
	return strings.ToLower(strings.TrimSpace(service))
}
