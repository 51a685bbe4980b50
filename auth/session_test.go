package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/barale2906/carmot-go/api"
	"github.com/barale2906/carmot-go/auth"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "secreto123"
	testToken    = "issued-token"
)

// sessionFixture wires a fake backend, an api client and a session store.
type sessionFixture struct {
	server  *httptest.Server
	creds   api.CredentialStore
	client  *api.Client
	store   *auth.SessionStore
	service *auth.Service

	mu   sync.Mutex
	hits map[string]int

	// knobs
	loginStatus  int
	loginBody    map[string]any
	userStatus   int
	logoutStatus int
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		hits:         map[string]int{},
		loginStatus:  http.StatusOK,
		userStatus:   http.StatusOK,
		logoutStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		f.count("/login")
		body := f.loginBody
		if body == nil {
			body = map[string]any{"access_token": testToken, "token_type": "Bearer"}
		}
		respond(w, f.loginStatus, body)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		f.count("/user")
		respond(w, f.userStatus, map[string]any{
			"id": 42, "name": "Ana", "email": testEmail, "role": "admin",
		})
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		f.count("/logout")
		respond(w, f.logoutStatus, map[string]any{"message": "bye"})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.count("/auth/refresh")
		respond(w, http.StatusUnauthorized, map[string]any{"message": "Unauthenticated."})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	f.creds = api.NewMemoryCredentials()
	client, err := api.New(api.Config{BaseURL: f.server.URL, Credentials: f.creds})
	require.NoError(t, err)
	f.client = client
	f.service = auth.NewService(client)
	f.store = auth.NewSessionStore(client, f.service, nil)
	return f
}

func (f *sessionFixture) count(path string) {
	f.mu.Lock()
	f.hits[path]++
	f.mu.Unlock()
}

func (f *sessionFixture) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *sessionFixture) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.hits {
		total += n
	}
	return total
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSessionStore_LoginSuccess(t *testing.T) {
	f := newSessionFixture(t)

	result := f.store.Login(context.Background(), auth.Credentials{Email: testEmail, Password: testPassword})
	require.True(t, result.OK)
	require.Empty(t, result.Error)

	require.Equal(t, auth.StatusAuthenticated, f.store.Status())
	require.True(t, f.store.IsAuthenticated())
	require.Equal(t, "Ana", f.store.UserName())
	require.Equal(t, "admin", f.store.UserRole())

	tok, err := f.creds.Load()
	require.NoError(t, err)
	require.NotNil(t, tok)
	require.Equal(t, testToken, tok.AccessToken)
}

func TestSessionStore_LoginFailureSurfacesBackendMessage(t *testing.T) {
	f := newSessionFixture(t)
	f.loginStatus = http.StatusUnprocessableEntity
	f.loginBody = map[string]any{"message": "Credenciales incorrectas"}

	result := f.store.Login(context.Background(), auth.Credentials{Email: testEmail, Password: "nope"})
	require.False(t, result.OK)
	require.Equal(t, "Credenciales incorrectas", result.Error)

	require.Equal(t, auth.StatusAnonymous, f.store.Status())
	tok, err := f.creds.Load()
	require.NoError(t, err)
	require.Nil(t, tok, "no credential persisted on failed login")
}

func TestSessionStore_LoginPrincipalFetchFailureDiscardsCredential(t *testing.T) {
	f := newSessionFixture(t)
	f.userStatus = http.StatusInternalServerError

	result := f.store.Login(context.Background(), auth.Credentials{Email: testEmail, Password: testPassword})
	require.False(t, result.OK)

	require.Equal(t, auth.StatusAnonymous, f.store.Status())
	require.Nil(t, f.store.Principal())
	tok, err := f.creds.Load()
	require.NoError(t, err)
	require.Nil(t, tok, "credential and principal are cleared together")
}

func TestSessionStore_LogoutClearsStateEvenWhenServerFails(t *testing.T) {
	f := newSessionFixture(t)
	result := f.store.Login(context.Background(), auth.Credentials{Email: testEmail, Password: testPassword})
	require.True(t, result.OK)

	f.logoutStatus = http.StatusInternalServerError
	f.store.Logout(context.Background())

	require.Equal(t, auth.StatusAnonymous, f.store.Status())
	require.Nil(t, f.store.Principal())
	tok, err := f.creds.Load()
	require.NoError(t, err)
	require.Nil(t, tok, "local session cleared regardless of server outcome")
}

func TestSessionStore_LogoutIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	f.store.Logout(context.Background())
	f.store.Logout(context.Background())

	require.Equal(t, auth.StatusAnonymous, f.store.Status())
	require.False(t, f.store.IsAuthenticated())
}

func TestSessionStore_CheckAuthWithoutCredentialMakesNoNetworkCalls(t *testing.T) {
	f := newSessionFixture(t)

	ok := f.store.CheckAuth(context.Background())
	require.False(t, ok)
	require.True(t, f.store.Checked())
	require.Equal(t, auth.StatusAnonymous, f.store.Status())
	require.Zero(t, f.totalHits(), "no request may leave the client")
}

func TestSessionStore_CheckAuthValidatesRestoredCredential(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.creds.Store(&oauth2.Token{AccessToken: testToken, TokenType: "Bearer"}))

	ok := f.store.CheckAuth(context.Background())
	require.True(t, ok)
	require.Equal(t, auth.StatusAuthenticated, f.store.Status())
	require.Equal(t, 1, f.hitCount("/user"))
	require.NotNil(t, f.store.Principal())
}

func TestSessionStore_CheckAuthDiscardsRejectedCredential(t *testing.T) {
	f := newSessionFixture(t)
	f.userStatus = http.StatusUnauthorized
	require.NoError(t, f.creds.Store(&oauth2.Token{AccessToken: "expired", TokenType: "Bearer"}))

	ok := f.store.CheckAuth(context.Background())
	require.False(t, ok)
	require.Equal(t, auth.StatusAnonymous, f.store.Status())

	tok, err := f.creds.Load()
	require.NoError(t, err)
	require.Nil(t, tok, "rejected credential discarded")
}

func TestSessionStore_RefreshTokenFailureForcesLogout(t *testing.T) {
	f := newSessionFixture(t)
	result := f.store.Login(context.Background(), auth.Credentials{Email: testEmail, Password: testPassword})
	require.True(t, result.OK)

	ok := f.store.RefreshToken(context.Background())
	require.False(t, ok)
	require.Equal(t, auth.StatusAnonymous, f.store.Status())
	tok, err := f.creds.Load()
	require.NoError(t, err)
	require.Nil(t, tok)
}

func TestSessionStore_MarkInvalid(t *testing.T) {
	f := newSessionFixture(t)
	f.store.MarkInvalid()
	require.Equal(t, auth.StatusInvalid, f.store.Status())
	require.False(t, f.store.IsAuthenticated())
}
