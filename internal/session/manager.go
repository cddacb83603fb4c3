package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/artmixer/atelier/internal/domain"
	apperrors "github.com/artmixer/atelier/internal/errors"
)

// Credentials are the two accepted login shapes: password+email for a
// provisioned user, password+master password for the admin tier.
// Exactly one of Email/MasterPassword must be set.
type Credentials struct {
	Password       string
	Email          string
	MasterPassword string
}

// ManagerOptions holds the dependencies for creating a Manager.
type ManagerOptions struct {
	Store Store
	// LoginURL is the absolute login endpoint, e.g. base + "/auth/login".
	LoginURL string
	// HTTPClient issues the login request. Login never needs a bearer
	// header, so this is a plain client, not the gateway.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Manager owns the current session. It is the single writer of the
// persisted credential (login/logout); every outbound call reads it.
type Manager struct {
	store  Store
	login  string
	http   *http.Client
	logger *slog.Logger

	mu   sync.RWMutex
	sess Session
	held bool
}

// NewManager creates a Manager and loads any persisted session.
func NewManager(ctx context.Context, opts ManagerOptions) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	if opts.LoginURL == "" {
		return nil, errors.New("login URL is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Manager{
		store:  opts.Store,
		login:  opts.LoginURL,
		http:   opts.HTTPClient,
		logger: opts.Logger,
	}

	sess, err := opts.Store.Load(ctx)
	switch {
	case err == nil:
		m.sess = sess
		m.held = true
	case errors.Is(err, ErrNotFound):
		// Anonymous start.
	default:
		return nil, fmt.Errorf("load session: %w", err)
	}
	return m, nil
}

type loginRequest struct {
	Password       string `json:"password"`
	Email          string `json:"email,omitempty"`
	MasterPassword string `json:"master_password,omitempty"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IsMaster    bool   `json:"is_master"`
	Email       string `json:"email"`
}

// Login authenticates against the service and persists the returned
// credential and identity. The identity is returned on success.
func (m *Manager) Login(ctx context.Context, creds Credentials) (domain.Identity, error) {
	if creds.Password == "" {
		return domain.Identity{}, apperrors.ValidationField("password", "password is required")
	}
	if (creds.Email == "") == (creds.MasterPassword == "") {
		return domain.Identity{}, apperrors.Validation("provide exactly one of email or master password")
	}

	body, err := json.Marshal(loginRequest{
		Password:       creds.Password,
		Email:          creds.Email,
		MasterPassword: creds.MasterPassword,
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.login, bytes.NewReader(body))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return domain.Identity{}, apperrors.Network("login request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is not actionable

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Identity{}, apperrors.AuthRequired(serverDetail(resp.Body))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return domain.Identity{}, apperrors.Network("decode login response", err)
	}
	if lr.AccessToken == "" {
		return domain.Identity{}, apperrors.Network("login response carried no token", nil)
	}

	identity := domain.Identity{IsAdmin: lr.IsMaster}
	if lr.Email != "" {
		identity.Email = &lr.Email
	} else if creds.Email != "" {
		identity.Email = &creds.Email
	}

	sess := Session{Token: lr.AccessToken, Identity: identity}
	if err := m.store.Save(ctx, sess); err != nil {
		return domain.Identity{}, fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.sess = sess
	m.held = true
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "session established", "admin", identity.IsAdmin)
	return identity, nil
}

// serverDetail extracts the displayable message from an error body.
// The service reports either {"detail": ...} or {"error": ...}.
func serverDetail(r io.Reader) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Error
}

// Logout clears the persisted credential and identity. No network
// round trip is involved; the server-side token simply ages out.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.mu.Lock()
	m.sess = Session{}
	m.held = false
	m.mu.Unlock()
	m.logger.InfoContext(ctx, "session cleared")
	return nil
}

// IsAuthenticated reports whether a non-empty credential is held.
// There is no expiry check; a stale token surfaces as AuthRequired on
// its first rejected use.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.held && m.sess.Token != ""
}

// IsAdmin reports whether the held identity carries the admin flag.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.held && m.sess.Identity.IsAdmin
}

// Identity returns the held identity and whether one exists.
func (m *Manager) Identity() (domain.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.Identity, m.held
}

// AuthHeader returns headers for an authenticated request: the bearer
// Authorization header when a credential is held, empty otherwise.
func (m *Manager) AuthHeader() http.Header {
	h := http.Header{}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.held && m.sess.Token != "" {
		h.Set("Authorization", "Bearer "+m.sess.Token)
	}
	return h
}

// TokenSource exposes the live credential as an oauth2.TokenSource so
// the call gateway can attach it via the standard oauth2 transport.
// Token returns an error while anonymous.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return managerTokenSource{m: m}
}

type managerTokenSource struct {
	m *Manager
}

func (ts managerTokenSource) Token() (*oauth2.Token, error) {
	ts.m.mu.RLock()
	defer ts.m.mu.RUnlock()
	if !ts.m.held || ts.m.sess.Token == "" {
		return nil, apperrors.AuthRequired("")
	}
	return &oauth2.Token{AccessToken: ts.m.sess.Token, TokenType: "Bearer"}, nil
}
