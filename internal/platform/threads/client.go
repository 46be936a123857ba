package threads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/failsafe-go/failsafe-go/timeout"

	"github.com/yungbote/personapost-backend/internal/observability"
	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
	"github.com/yungbote/personapost-backend/internal/pkg/httpx"
	"github.com/yungbote/personapost-backend/internal/platform/envutil"
	"github.com/yungbote/personapost-backend/internal/platform/logger"
)

const maxTextLength = 500

// Credential is what a publish call needs from an Account.
type Credential struct {
	AccessToken string
	UserID      string
}

type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// TokenGrant is the result of a code exchange or refresh. ExpiresIn is in seconds; 0 means unknown.
type TokenGrant struct {
	AccessToken string
	UserID      string
	ExpiresIn   int64
}

// Client is the publishing platform. Every error it returns matches errors.ErrPlatform.
type Client interface {
	CreateContainer(ctx context.Context, cred Credential, text string) (string, error)
	Commit(ctx context.Context, cred Credential, containerID string) (string, error)
	GetProfile(ctx context.Context, accessToken string) (Profile, error)
	ExchangeCode(ctx context.Context, code, redirectURI string) (TokenGrant, error)
	Refresh(ctx context.Context, accessToken string) (TokenGrant, error)
	AuthorizeURL(state string) string
}

type Config struct {
	AppID       string
	AppSecret   string
	RedirectURI string
	BaseURL     string
	AuthURL     string
	APIVersion  string
	Scopes      []string
	Timeout     time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		AppID:       envutil.String("THREADS_APP_ID", ""),
		AppSecret:   envutil.String("THREADS_APP_SECRET", ""),
		RedirectURI: envutil.String("THREADS_REDIRECT_URI", ""),
		BaseURL:     envutil.String("THREADS_BASE_URL", "https://graph.threads.net"),
		AuthURL:     envutil.String("THREADS_AUTH_URL", "https://threads.net/oauth/authorize"),
		APIVersion:  envutil.String("THREADS_API_VERSION", "v1.0"),
		Scopes:      envutil.CSV("THREADS_SCOPES", []string{"threads_basic", "threads_content_publish"}),
		Timeout:     envutil.Duration("EXTERNAL_CALL_TIMEOUT", 30*time.Second),
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	retry      retrypolicy.RetryPolicy[[]byte]
}

func NewClient(log *logger.Logger, cfg Config) Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.threads.net"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	retry := retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool { return httpx.IsRetryableError(err) }).
		WithBackoff(500*time.Millisecond, 5*time.Second).
		WithMaxRetries(2).
		WithJitterFactor(0.1).
		ReturnLastFailure().
		Build()
	return &client{
		log:        log.With("client", "ThreadsClient"),
		cfg:        cfg,
		httpClient: &http.Client{},
		retry:      retry,
	}
}

func (c *client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.AppID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", strings.Join(c.cfg.Scopes, ","))
	q.Set("response_type", "code")
	q.Set("state", state)
	return c.cfg.AuthURL + "?" + q.Encode()
}

func (c *client) CreateContainer(ctx context.Context, cred Credential, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", perr.Platform(0, "post text is empty")
	}
	if len([]rune(text)) > maxTextLength {
		return "", perr.Platform(0, fmt.Sprintf("post text exceeds %d characters", maxTextLength))
	}
	params := url.Values{}
	params.Set("media_type", "TEXT")
	params.Set("text", text)
	params.Set("access_token", cred.AccessToken)

	var out struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, "create_container", http.MethodPost, c.versioned(cred.UserID, "threads"), params, false, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", perr.Platform(0, "container response missing id")
	}
	return out.ID, nil
}

func (c *client) Commit(ctx context.Context, cred Credential, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", cred.AccessToken)

	var out struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, "commit", http.MethodPost, c.versioned(cred.UserID, "threads_publish"), params, false, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", perr.Platform(0, "publish response missing id")
	}
	return out.ID, nil
}

func (c *client) GetProfile(ctx context.Context, accessToken string) (Profile, error) {
	params := url.Values{}
	params.Set("fields", "id,username,name")
	params.Set("access_token", accessToken)

	var out Profile
	if err := c.call(ctx, "get_profile", http.MethodGet, c.versioned("me"), params, true, &out); err != nil {
		return Profile{}, err
	}
	if out.ID == "" {
		return Profile{}, perr.Platform(0, "profile response missing id")
	}
	return out, nil
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	UserID      json.RawMessage `json:"user_id,omitempty"`
	ExpiresIn   int64           `json:"expires_in,omitempty"`
}

// ExchangeCode swaps an authorization code for a short-lived token, then upgrades it to a
// long-lived one. The code is single use so the first step is never retried.
func (c *client) ExchangeCode(ctx context.Context, code, redirectURI string) (TokenGrant, error) {
	if redirectURI == "" {
		redirectURI = c.cfg.RedirectURI
	}
	params := url.Values{}
	params.Set("client_id", c.cfg.AppID)
	params.Set("client_secret", c.cfg.AppSecret)
	params.Set("grant_type", "authorization_code")
	params.Set("redirect_uri", redirectURI)
	params.Set("code", code)

	var short tokenResponse
	if err := c.call(ctx, "exchange_code", http.MethodPost, "/oauth/access_token", params, false, &short); err != nil {
		return TokenGrant{}, err
	}
	if short.AccessToken == "" {
		return TokenGrant{}, perr.Platform(0, "code exchange returned no access token")
	}
	userID := rawID(short.UserID)

	long := url.Values{}
	long.Set("grant_type", "th_exchange_token")
	long.Set("client_secret", c.cfg.AppSecret)
	long.Set("access_token", short.AccessToken)
	var upgraded tokenResponse
	if err := c.call(ctx, "exchange_long_lived", http.MethodGet, "/access_token", long, true, &upgraded); err != nil {
		c.log.Warn("long-lived token exchange failed; keeping short-lived token", "error", err)
		return TokenGrant{AccessToken: short.AccessToken, UserID: userID, ExpiresIn: short.ExpiresIn}, nil
	}
	return TokenGrant{AccessToken: upgraded.AccessToken, UserID: userID, ExpiresIn: upgraded.ExpiresIn}, nil
}

func (c *client) Refresh(ctx context.Context, accessToken string) (TokenGrant, error) {
	params := url.Values{}
	params.Set("grant_type", "th_refresh_token")
	params.Set("access_token", accessToken)

	var out tokenResponse
	if err := c.call(ctx, "refresh_token", http.MethodGet, "/refresh_access_token", params, true, &out); err != nil {
		return TokenGrant{}, err
	}
	if out.AccessToken == "" {
		return TokenGrant{}, perr.Platform(0, "refresh returned no access token")
	}
	return TokenGrant{AccessToken: out.AccessToken, ExpiresIn: out.ExpiresIn}, nil
}

func (c *client) versioned(parts ...string) string {
	return "/" + c.cfg.APIVersion + "/" + strings.Join(parts, "/")
}

// call runs one request under a per-attempt timeout. retry is only set for idempotent calls.
func (c *client) call(ctx context.Context, op, method, path string, params url.Values, retry bool, out any) error {
	policies := make([]failsafe.Policy[[]byte], 0, 2)
	if retry {
		policies = append(policies, c.retry)
	}
	policies = append(policies, timeout.New[[]byte](c.cfg.Timeout))

	start := time.Now()
	raw, err := failsafe.With(policies...).WithContext(ctx).GetWithExecution(func(exec failsafe.Execution[[]byte]) ([]byte, error) {
		return c.doOnce(exec.Context(), method, path, params)
	})
	observability.Current().ObserveExternalCall("threads", op, callStatus(err), time.Since(start))
	if err != nil {
		c.log.Debug("platform call failed", "operation", op, "error", err)
		return perr.PlatformWrap(err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return perr.Platform(0, fmt.Sprintf("malformed %s response: %s", op, httpx.Truncate(string(raw), 256)))
	}
	return nil
}

func (c *client) doOnce(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	endpoint := c.cfg.BaseURL + path
	var body io.Reader
	if method == http.MethodGet {
		endpoint += "?" + params.Encode()
	} else {
		body = strings.NewReader(params.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, perr.Platform(resp.StatusCode, remoteMessage(raw))
	}
	return raw, nil
}

// remoteMessage pulls error.message out of a Graph API error body, falling back to the raw body.
func remoteMessage(raw []byte) string {
	var env struct {
		Error struct {
			Message      string `json:"message"`
			ErrorUserMsg string `json:"error_user_msg"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		if msg := strings.TrimSpace(env.Error.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(env.Error.ErrorUserMsg); msg != "" {
			return msg
		}
	}
	return httpx.Truncate(string(raw), 512)
}

func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if unq, err := strconv.Unquote(s); err == nil {
		return unq
	}
	return s
}

func callStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) && sc.HTTPStatusCode() > 0 {
		return strconv.Itoa(sc.HTTPStatusCode())
	}
	return "error"
}
