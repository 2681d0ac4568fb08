package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the on-disk settings document.
type Settings struct {
	// Username is the platform account name.
	Username string `json:"username"`

	// Token is the platform access token.
	Token string `json:"auth"`

	// APIURL is the platform API root.
	APIURL string `json:"url"`

	// RSAPath is the private key used for SSH access to jobs.
	RSAPath string `json:"rsa_path"`

	// Port is the last local port used for port forwarding.
	Port int `json:"port,omitempty"`

	// JobParams is the last raw parameter string used to submit a job.
	JobParams string `json:"job_params,omitempty"`

	// JobName is the last job description used on submission.
	JobName string `json:"job_name,omitempty"`

	// Presets are the saved job-submission presets.
	Presets []Preset `json:"presets"`
}

// Store reads and writes a [Settings] file.
//
// All methods are safe for concurrent use. Mutations go through
// [Store.Update], which persists the modified document before returning.
type Store struct {
	path string

	mu       sync.RWMutex
	current  Settings
	onChange []func(Settings)
}

// Open loads the settings file at path, creating an empty document if the
// file does not exist yet. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("settings path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	s := &Store{path: path}
	if err := s.reload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := s.save(Settings{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the location of the settings file.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Update applies fn to a copy of the current settings, persists the result,
// and notifies [Store.OnChange] subscribers. The write is atomic: the
// document is staged to a temp file and renamed over the original.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	next := s.current.clone()
	fn(&next)
	err := s.save(next)
	saved := s.current.clone()
	subscribers := s.onChange
	s.mu.Unlock()

	if err != nil {
		return err
	}
	// notify outside the lock so subscribers can read the store
	for _, notify := range subscribers {
		notify(saved)
	}
	return nil
}

// save persists the document and makes it current. Called with s.mu held
// (or before the store is shared).
func (s *Store) save(next Settings) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.current = next
	return nil
}

// reload reads the file into the store without notifying subscribers.
func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return nil
}

// clone returns a deep copy (the preset slice is the only reference field).
func (s Settings) clone() Settings {
	cp := s
	if s.Presets != nil {
		cp.Presets = make([]Preset, len(s.Presets))
		copy(cp.Presets, s.Presets)
	}
	return cp
}
