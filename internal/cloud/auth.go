package cloud

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nerrad567/purifier-collector/internal/secrets"
)

// Logger defines the logging interface used by the authenticators.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Credential is an authorization header value. It redacts itself in logs.
type Credential struct {
	scheme string
	value  string
}

// BearerCredential wraps a bearer token.
func BearerCredential(token string) Credential {
	return Credential{scheme: "Bearer", value: token}
}

// BasicCredential wraps an account/password pair.
func BasicCredential(account, password string) Credential {
	return Credential{
		scheme: "Basic",
		value:  base64.StdEncoding.EncodeToString([]byte(account + ":" + password)),
	}
}

// Header returns the Authorization header value.
func (c Credential) Header() string {
	if c.value == "" {
		return ""
	}
	return c.scheme + " " + c.value
}

// Scheme returns "Basic" or "Bearer".
func (c Credential) Scheme() string { return c.scheme }

func (c Credential) String() string { return c.scheme + " [REDACTED]" }

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value { return slog.StringValue(c.String()) }

// Authenticator obtains an authorization credential for the cloud API.
type Authenticator interface {
	// Login returns a usable credential or fails with ErrAuthPending,
	// ErrAccountInactive, ErrMissingAccount or ErrCloudUnavailable.
	Login(ctx context.Context) (Credential, error)

	// Invalidate discards any cached credential after the cloud refused it.
	Invalidate(ctx context.Context) error
}

// BasicAuthenticator implements the legacy e-mail/password login.
type BasicAuthenticator struct {
	client *Client
	store  secrets.Store
	logger Logger
}

// NewBasicAuthenticator creates a BasicAuthenticator.
func NewBasicAuthenticator(client *Client, store secrets.Store) *BasicAuthenticator {
	return &BasicAuthenticator{client: client, store: store, logger: noopLogger{}}
}

// SetLogger sets the logger for the authenticator.
func (a *BasicAuthenticator) SetLogger(logger Logger) {
	a.logger = logger
}

type basicRequest struct {
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

type basicResponse struct {
	Account  string `json:"Account"`
	Password string `json:"Password"`
}

// Login exchanges the stored account credentials for a Basic credential.
// Nothing is cached; every call performs one request.
func (a *BasicAuthenticator) Login(ctx context.Context) (Credential, error) {
	email, password, err := accountCredentials(ctx, a.store)
	if err != nil {
		return Credential{}, err
	}

	var resp basicResponse
	err = a.client.do(ctx, http.MethodPost, "/v1/userregistration/authenticate", "",
		basicRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return Credential{}, err
	}
	if resp.Account == "" || resp.Password == "" {
		return Credential{}, fmt.Errorf("%w: authenticate response missing account pair", ErrCloudUnavailable)
	}

	a.logger.Debug("cloud login succeeded", "scheme", "basic")
	return BasicCredential(resp.Account, resp.Password), nil
}

// Invalidate is a no-op; basic credentials are never cached.
func (a *BasicAuthenticator) Invalidate(context.Context) error { return nil }

// accountCredentials reads the e-mail and password from the store.
func accountCredentials(ctx context.Context, store secrets.Store) (email, password string, err error) {
	email, ok, err := secrets.Lookup(ctx, store, secrets.KeyUsername)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", secrets.KeyUsername, err)
	}
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrMissingAccount, secrets.KeyUsername)
	}
	password, ok, err = secrets.Lookup(ctx, store, secrets.KeyPassword)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", secrets.KeyPassword, err)
	}
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrMissingAccount, secrets.KeyPassword)
	}
	return email, password, nil
}
