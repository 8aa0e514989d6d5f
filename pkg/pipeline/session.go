package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Role is what a generated file is for.
type Role int

const (
	RoleTemplate Role = iota
	RoleUserCreation
	RoleGrant
	RoleObjectDDL
	RoleDriver
)

func (r Role) String() string {
	switch r {
	case RoleTemplate:
		return "template"
	case RoleUserCreation:
		return "user-creation"
	case RoleGrant:
		return "grant"
	case RoleObjectDDL:
		return "object-ddl"
	case RoleDriver:
		return "driver"
	default:
		return "unknown"
	}
}

// GeneratedFile is a file written into an output directory.
type GeneratedFile struct {
	Name string
	Role Role
}

// Session owns one output directory for the duration of its processing.
// OpenSession clears the directory; Close ends the session.
type Session struct {
	dir string

	mu     sync.Mutex
	files  []GeneratedFile
	closed bool
}

// OpenSession removes dir and everything in it, then recreates it empty.
func OpenSession(dir string) (*Session, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clearing output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Session{dir: dir}, nil
}

// Dir returns the session directory.
func (s *Session) Dir() string { return s.dir }

// Path joins name onto the session directory.
func (s *Session) Path(name string) string { return filepath.Join(s.dir, name) }

// Write creates name in the session directory and records it.
func (s *Session) Write(name string, data []byte, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	s.files = append(s.files, GeneratedFile{Name: name, Role: role})
	return nil
}

// Record notes a file written into the directory by someone else.
func (s *Session) Record(name string, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, GeneratedFile{Name: name, Role: role})
}

// Files returns the files recorded so far.
func (s *Session) Files() []GeneratedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GeneratedFile(nil), s.files...)
}

// Close ends the session. Later writes fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
