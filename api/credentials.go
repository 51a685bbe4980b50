package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// CredentialStore persists the bearer credential between runs. Exactly one
// credential is active at a time; Store replaces whatever was there before.
// Load reports (nil, nil) when no credential is persisted.
type CredentialStore interface {
	Load() (*oauth2.Token, error)
	Store(*oauth2.Token) error
	Clear() error
}

// MemoryCredentials keeps the credential in process memory only. It is the
// closest analogue to browser-tab-scoped storage: it survives nothing.
type MemoryCredentials struct {
	mu    sync.Mutex
	token *oauth2.Token
}

func NewMemoryCredentials() *MemoryCredentials { return &MemoryCredentials{} }

func (m *MemoryCredentials) Load() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryCredentials) Store(tok *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = tok
	return nil
}

func (m *MemoryCredentials) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}

// FileCredentials persists the credential as JSON under a single fixed path,
// owner-readable only.
type FileCredentials struct {
	mu   sync.Mutex
	path string
}

func NewFileCredentials(path string) *FileCredentials {
	return &FileCredentials{path: path}
}

func (f *FileCredentials) Load() (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, nil
	}
	return &tok, nil
}

func (f *FileCredentials) Store(tok *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileCredentials) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// TokenExpiresAt inspects the credential's JWT exp claim without verifying
// the signature. The result is diagnostic only and never used for
// authorization decisions; the backend remains the authority on validity.
func TokenExpiresAt(raw string) (time.Time, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
