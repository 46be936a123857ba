package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/personapost-backend/internal/data/repos"
	types "github.com/yungbote/personapost-backend/internal/domain"
	"github.com/yungbote/personapost-backend/internal/pkg/dbctx"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/pointers"
	"github.com/yungbote/personapost-backend/internal/platform/crypto"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
	"github.com/yungbote/personapost-backend/internal/platform/threads"
)

const (
	oauthStateSubject = "threads_oauth"
	oauthStateTTL     = 10 * time.Minute
)

type ManualAccountInput struct {
	DisplayName    string     `json:"display_name"`
	Username       string     `json:"username"`
	PlatformUserID string     `json:"platform_user_id"`
	AccessToken    string     `json:"access_token"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`
}

type RefreshResult struct {
	Total     int `json:"total"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// CredentialResolver turns an account reference into a publishable credential.
type CredentialResolver interface {
	ResolveCredential(ctx context.Context, accountID *uuid.UUID) (threads.Credential, error)
}

type AccountService interface {
	CredentialResolver
	List(ctx context.Context) ([]*types.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Account, error)
	CreateManual(ctx context.Context, in ManualAccountInput) (*types.Account, error)
	AuthorizeURL() (string, error)
	CompleteOAuth(ctx context.Context, code, state string) (*types.Account, error)
	Disconnect(ctx context.Context, id uuid.UUID) (*types.Account, error)
	RefreshExpiring(ctx context.Context, window time.Duration) (RefreshResult, error)
}

type accountService struct {
	log         *logger.Logger
	accounts    repos.AccountRepo
	platform    threads.Client
	cipher      *crypto.TokenCipher
	stateSecret []byte
	redirectURI string
	clock       clock.Clock
}

func NewAccountService(
	baseLog *logger.Logger,
	accounts repos.AccountRepo,
	platform threads.Client,
	cipher *crypto.TokenCipher,
	stateSecret string,
	redirectURI string,
	clk clock.Clock,
) AccountService {
	if clk == nil {
		clk = clock.New()
	}
	return &accountService{
		log:         baseLog.With("service", "AccountService"),
		accounts:    accounts,
		platform:    platform,
		cipher:      cipher,
		stateSecret: []byte(stateSecret),
		redirectURI: redirectURI,
		clock:       clk,
	}
}

func (as *accountService) List(ctx context.Context) ([]*types.Account, error) {
	return as.accounts.List(dbctx.New(ctx))
}

func (as *accountService) Get(ctx context.Context, id uuid.UUID) (*types.Account, error) {
	return as.accounts.GetByID(dbctx.New(ctx), id)
}

func (as *accountService) CreateManual(ctx context.Context, in ManualAccountInput) (*types.Account, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.PlatformUserID = strings.TrimSpace(in.PlatformUserID)
	if in.DisplayName == "" {
		return nil, perr.Validationf("display_name is required")
	}
	acct := &types.Account{
		DisplayName: in.DisplayName,
		Username:    strings.TrimSpace(in.Username),
		Active:      true,
	}
	if in.PlatformUserID != "" {
		acct.PlatformUserID = pointers.String(in.PlatformUserID)
	}
	if tok := strings.TrimSpace(in.AccessToken); tok != "" {
		sealed, err := as.cipher.Seal(tok)
		if err != nil {
			return nil, err
		}
		acct.AccessToken = &sealed
	}
	if in.TokenExpiresAt != nil {
		acct.TokenExpiresAt = pointers.Time(in.TokenExpiresAt.UTC())
	}
	return as.accounts.Create(dbctx.New(ctx), acct)
}

// AuthorizeURL starts the OAuth round trip with a signed state that expires after ten minutes.
func (as *accountService) AuthorizeURL() (string, error) {
	if len(as.stateSecret) == 0 {
		return "", perr.Validationf("OAUTH_STATE_SECRET is not configured")
	}
	now := as.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   oauthStateSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(oauthStateTTL)),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.stateSecret)
	if err != nil {
		return "", err
	}
	return as.platform.AuthorizeURL(state), nil
}

func (as *accountService) verifyState(state string) error {
	if len(as.stateSecret) == 0 {
		return perr.Validationf("OAUTH_STATE_SECRET is not configured")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(oauthStateSubject),
		jwt.WithTimeFunc(as.clock.Now),
	)
	var claims jwt.RegisteredClaims
	tok, err := parser.ParseWithClaims(state, &claims, func(t *jwt.Token) (any, error) {
		return as.stateSecret, nil
	})
	if err != nil || !tok.Valid {
		return perr.Validationf("invalid or expired oauth state")
	}
	return nil
}

// CompleteOAuth verifies the state, exchanges the code and upserts the account keyed by the
// platform user id, so reconnecting refreshes the existing row.
func (as *accountService) CompleteOAuth(ctx context.Context, code, state string) (*types.Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, perr.Validationf("code is required")
	}
	if err := as.verifyState(state); err != nil {
		return nil, err
	}
	grant, err := as.platform.ExchangeCode(ctx, code, as.redirectURI)
	if err != nil {
		as.log.Warn("oauth code exchange failed", "error", err)
		return nil, err
	}
	profile, err := as.platform.GetProfile(ctx, grant.AccessToken)
	if err != nil {
		as.log.Warn("oauth profile fetch failed", "error", err)
		return nil, err
	}
	platformID := profile.ID
	if platformID == "" {
		platformID = grant.UserID
	}
	if platformID == "" {
		return nil, perr.Platform(0, "platform returned no user id")
	}
	sealed, err := as.cipher.Seal(grant.AccessToken)
	if err != nil {
		return nil, err
	}
	display := profile.Name
	if display == "" {
		display = profile.Username
	}
	if display == "" {
		display = platformID
	}
	acct := &types.Account{
		DisplayName:    display,
		Username:       profile.Username,
		PlatformUserID: pointers.String(platformID),
		AccessToken:    &sealed,
		TokenExpiresAt: as.expiryFor(grant),
		Active:         true,
	}
	out, err := as.accounts.UpsertByPlatformUserID(dbctx.New(ctx), acct)
	if err != nil {
		return nil, err
	}
	as.log.Info("account connected", "account_id", out.ID, "platform_user_id", platformID)
	return out, nil
}

func (as *accountService) expiryFor(grant threads.TokenGrant) *time.Time {
	if grant.ExpiresIn <= 0 {
		return nil
	}
	return pointers.Time(as.clock.Now().UTC().Add(time.Duration(grant.ExpiresIn) * time.Second))
}

// Disconnect drops the credential but keeps the row so historical posts still resolve.
func (as *accountService) Disconnect(ctx context.Context, id uuid.UUID) (*types.Account, error) {
	dbc := dbctx.New(ctx)
	if err := as.accounts.UpdateFields(dbc, id, map[string]interface{}{
		"access_token":     nil,
		"token_expires_at": nil,
		"active":           false,
	}); err != nil {
		return nil, err
	}
	return as.accounts.GetByID(dbc, id)
}

// ResolveCredential fails with ErrNoCredential for anything that would make a publish call
// pointless: no account, a missing account, no token, no platform id or an expired token.
func (as *accountService) ResolveCredential(ctx context.Context, accountID *uuid.UUID) (threads.Credential, error) {
	if accountID == nil || *accountID == uuid.Nil {
		return threads.Credential{}, perr.NoCredentialf("post has no account")
	}
	acct, err := as.accounts.GetByID(dbctx.New(ctx), *accountID)
	if err != nil {
		if errors.Is(err, perr.ErrNotFound) {
			return threads.Credential{}, perr.NoCredentialf("account %s not found", *accountID)
		}
		return threads.Credential{}, err
	}
	if !acct.Connected() {
		return threads.Credential{}, perr.NoCredentialf("account %s has no access token", acct.ID)
	}
	if !acct.HasUsableCredential(as.clock.Now()) {
		if acct.PlatformUserID == nil || *acct.PlatformUserID == "" {
			return threads.Credential{}, perr.NoCredentialf("account %s has no platform user id", acct.ID)
		}
		return threads.Credential{}, perr.NoCredentialf("account %s access token expired", acct.ID)
	}
	token, err := as.cipher.Open(*acct.AccessToken)
	if err != nil {
		return threads.Credential{}, perr.NoCredentialf("account %s token unreadable: %v", acct.ID, err)
	}
	return threads.Credential{AccessToken: token, UserID: *acct.PlatformUserID}, nil
}

// RefreshExpiring renews every active account whose token expires within window. One
// account failing does not stop the others.
func (as *accountService) RefreshExpiring(ctx context.Context, window time.Duration) (RefreshResult, error) {
	dbc := dbctx.New(ctx)
	now := as.clock.Now().UTC()
	expiring, err := as.accounts.ListActiveExpiringBefore(dbc, now.Add(window))
	if err != nil {
		return RefreshResult{}, err
	}
	res := RefreshResult{Total: len(expiring)}
	for _, acct := range expiring {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err := as.refreshOne(ctx, acct); err != nil {
			res.Failed++
			as.log.Warn("credential refresh failed", "account_id", acct.ID, "error", err)
			continue
		}
		res.Refreshed++
	}
	return res, nil
}

func (as *accountService) refreshOne(ctx context.Context, acct *types.Account) error {
	if !acct.Connected() {
		return perr.NoCredentialf("account %s has no access token", acct.ID)
	}
	current, err := as.cipher.Open(*acct.AccessToken)
	if err != nil {
		return err
	}
	grant, err := as.platform.Refresh(ctx, current)
	if err != nil {
		return err
	}
	sealed, err := as.cipher.Seal(grant.AccessToken)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{"access_token": sealed}
	if exp := as.expiryFor(grant); exp != nil {
		updates["token_expires_at"] = *exp
	}
	return as.accounts.UpdateFields(dbctx.New(ctx), acct.ID, updates)
}
