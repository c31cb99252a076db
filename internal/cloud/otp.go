package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/purifier-collector/internal/secrets"
)

const accountActive = "ACTIVE"

// OTPAuthenticator implements the e-mail one-time-password login and caches
// the bearer token in the secret store.
type OTPAuthenticator struct {
	client *Client
	store  secrets.Store
	now    func() time.Time
	logger Logger
}

// NewOTPAuthenticator creates an OTPAuthenticator.
func NewOTPAuthenticator(client *Client, store secrets.Store) *OTPAuthenticator {
	return &OTPAuthenticator{
		client: client,
		store:  store,
		now:    time.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the authenticator.
func (a *OTPAuthenticator) SetLogger(logger Logger) {
	a.logger = logger
}

type emailRequest struct {
	Email string `json:"email"`
}

type userStatusResponse struct {
	AccountStatus        string `json:"accountStatus"`
	AuthenticationMethod string `json:"authenticationMethod"`
}

type challengeResponse struct {
	ChallengeID string `json:"challengeId"`
}

type verifyRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	ChallengeID string `json:"challengeId"`
	OTPCode     string `json:"otpCode"`
}

type verifyResponse struct {
	Account   string `json:"account"`
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}

// Login returns the cached bearer token when it is still usable, otherwise
// advances the OTP flow by one step.
func (a *OTPAuthenticator) Login(ctx context.Context) (Credential, error) {
	token, ok, err := secrets.Lookup(ctx, a.store, secrets.KeyToken)
	if err != nil {
		return Credential{}, fmt.Errorf("reading %s: %w", secrets.KeyToken, err)
	}
	if ok {
		if !tokenExpired(token, a.now()) {
			return BearerCredential(token), nil
		}
		a.logger.Info("cached cloud token expired, re-authenticating")
		if err := a.store.Delete(ctx, secrets.KeyToken); err != nil {
			return Credential{}, fmt.Errorf("deleting expired token: %w", err)
		}
	}

	email, password, err := accountCredentials(ctx, a.store)
	if err != nil {
		return Credential{}, err
	}

	var status userStatusResponse
	if err := a.client.do(ctx, http.MethodPost, "/v3/userregistration/email/userstatus", "",
		emailRequest{Email: email}, &status); err != nil {
		return Credential{}, err
	}
	if !strings.EqualFold(status.AccountStatus, accountActive) {
		return Credential{}, fmt.Errorf("%w: status %q", ErrAccountInactive, status.AccountStatus)
	}

	challengeID, hasChallenge, err := secrets.Lookup(ctx, a.store, secrets.KeyChallengeID)
	if err != nil {
		return Credential{}, fmt.Errorf("reading %s: %w", secrets.KeyChallengeID, err)
	}
	if !hasChallenge {
		return Credential{}, a.requestChallenge(ctx, email)
	}

	otp, hasOTP, err := secrets.Lookup(ctx, a.store, secrets.KeyOTPCode)
	if err != nil {
		return Credential{}, fmt.Errorf("reading %s: %w", secrets.KeyOTPCode, err)
	}
	if !hasOTP {
		return Credential{}, fmt.Errorf("%w: waiting for %s", ErrAuthPending, secrets.KeyOTPCode)
	}

	return a.verify(ctx, verifyRequest{
		Email:       email,
		Password:    password,
		ChallengeID: challengeID,
		OTPCode:     strings.TrimSpace(otp),
	})
}

// requestChallenge asks the cloud to e-mail a code and records the challenge id.
func (a *OTPAuthenticator) requestChallenge(ctx context.Context, email string) error {
	var resp challengeResponse
	if err := a.client.do(ctx, http.MethodPost, "/v3/userregistration/email/auth", "",
		emailRequest{Email: email}, &resp); err != nil {
		return err
	}
	if resp.ChallengeID == "" {
		return fmt.Errorf("%w: auth response missing challengeId", ErrCloudUnavailable)
	}
	if err := a.store.Put(ctx, secrets.KeyChallengeID, resp.ChallengeID); err != nil {
		return fmt.Errorf("storing challenge id: %w", err)
	}

	a.logger.Warn("one-time password requested, store the e-mailed code in the secret store",
		"key", secrets.KeyOTPCode)
	return fmt.Errorf("%w: challenge issued", ErrAuthPending)
}

// verify submits the challenge and code. A rejected code clears the challenge
// so the next pass starts over.
func (a *OTPAuthenticator) verify(ctx context.Context, req verifyRequest) (Credential, error) {
	var resp verifyResponse
	err := a.client.do(ctx, http.MethodPost, "/v3/userregistration/email/verify", "", req, &resp)

	var statusErr *StatusError
	if errors.Is(err, ErrUnauthorized) || (errors.As(err, &statusErr) && statusErr.ClientError()) {
		if clearErr := a.clearChallenge(ctx); clearErr != nil {
			return Credential{}, clearErr
		}
		a.logger.Warn("one-time password rejected, a new challenge will be requested")
		return Credential{}, fmt.Errorf("%w: code rejected: %w", ErrAuthPending, err)
	}
	if err != nil {
		return Credential{}, err
	}
	if resp.Token == "" {
		return Credential{}, fmt.Errorf("%w: verify response missing token", ErrCloudUnavailable)
	}

	if err := a.store.Put(ctx, secrets.KeyToken, resp.Token); err != nil {
		return Credential{}, fmt.Errorf("storing token: %w", err)
	}
	if err := a.clearChallenge(ctx); err != nil {
		return Credential{}, err
	}

	a.logger.Info("cloud login succeeded", "scheme", "bearer")
	return BearerCredential(resp.Token), nil
}

func (a *OTPAuthenticator) clearChallenge(ctx context.Context) error {
	if err := a.store.Delete(ctx, secrets.KeyChallengeID); err != nil {
		return fmt.Errorf("clearing challenge id: %w", err)
	}
	if err := a.store.Delete(ctx, secrets.KeyOTPCode); err != nil {
		return fmt.Errorf("clearing otp code: %w", err)
	}
	return nil
}

// Invalidate deletes the cached token.
func (a *OTPAuthenticator) Invalidate(ctx context.Context) error {
	if err := a.store.Delete(ctx, secrets.KeyToken); err != nil {
		return fmt.Errorf("invalidating token: %w", err)
	}
	a.logger.Info("cloud token invalidated")
	return nil
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are assumed valid until the cloud refuses them.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
