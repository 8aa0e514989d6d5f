package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Entry is the manifest form of a credential.
type Entry struct {
	Password string `json:"Password"`
	Database string `json:"Database"`
}

// Credential is a generated account secret.
type Credential struct {
	Username string
	// Secret is the encrypted secret.
	Secret      string
	Environment string
}

// Entry returns the manifest form of c.
func (c Credential) Entry() Entry {
	return Entry{Password: c.Secret, Database: c.Environment}
}

// EnvironmentLabel builds the label stored with a credential: the
// environment directory followed by the first letter of the server tag.
func EnvironmentLabel(envDir, serverTag string) string {
	if serverTag == "" {
		return envDir
	}
	return envDir + serverTag[:1]
}

// Manifest accumulates credentials for one run. A username is registered at
// most once; its label is the lowest environment that asked for it, so the
// manifest does not depend on the order directories finish in. It is safe
// for concurrent use.
type Manifest struct {
	mu     sync.Mutex
	byUser map[string]Credential
	order  []string
	logger *zap.Logger
}

// NewManifest returns an empty manifest.
func NewManifest(logger *zap.Logger) *Manifest {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manifest{byUser: map[string]Credential{}, logger: logger}
}

// Register adds c unless its username is already present. It reports
// whether c was added. A present username keeps its secret and takes the
// label of c if that sorts first.
func (m *Manifest) Register(c Credential) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.byUser[c.Username]; ok {
		m.byUser[c.Username] = relabel(prev, c.Environment)
		m.logger.Info("credential already issued",
			zap.String("user", c.Username),
			zap.String("environment", m.byUser[c.Username].Environment),
			zap.String("requested_environment", c.Environment))
		return false
	}
	m.byUser[c.Username] = c
	m.order = append(m.order, c.Username)
	return true
}

// Lookup returns the credential registered for username.
func (m *Manifest) Lookup(username string) (Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byUser[username]
	return c, ok
}

// Observe returns the credential registered for username, relabelling it
// with environment if that sorts first.
func (m *Manifest) Observe(username, environment string) (Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byUser[username]
	if !ok {
		return Credential{}, false
	}
	c = relabel(c, environment)
	m.byUser[username] = c
	return c, true
}

func relabel(c Credential, environment string) Credential {
	if environment != "" && environment < c.Environment {
		c.Environment = environment
	}
	return c
}

// Len returns the number of registered users.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Credentials returns the registered credentials in registration order.
func (m *Manifest) Credentials() []Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Credential, len(m.order))
	for i, u := range m.order {
		out[i] = m.byUser[u]
	}
	return out
}

// Entries returns the manifest keyed by username.
func (m *Manifest) Entries() map[string]Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Entry, len(m.byUser))
	for u, c := range m.byUser {
		out[u] = c.Entry()
	}
	return out
}

// WriteJSON writes the manifest to path, creating parent directories.
func (m *Manifest) WriteJSON(path string) error {
	data, err := json.MarshalIndent(m.Entries(), "", "    ")
	if err != nil {
		return fmt.Errorf("encoding credential manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing credential manifest: %w", err)
	}
	return nil
}
