package identity

import (
	"bytes"
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

	"github.com/rkohli77/canadian-rental-platform/internal/domain"
	"github.com/rkohli77/canadian-rental-platform/pkg/xerrors"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	adminUsersPerPage = 200
	adminUsersMaxPage = 50
)

type GoTrueConfig struct {
	// URL is the project base URL; "/auth/v1" is appended.
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
}

// GoTrue talks to a hosted Supabase Auth (GoTrue) instance. Reads and deletes
// are retried on transport errors and 5xx; sign-up and sign-in are sent once.
type GoTrue struct {
	baseURL  string
	anonKey  string
	adminKey string
	once     *retryablehttp.Client
	retrying *retryablehttp.Client
	logger   *zap.Logger
}

func NewGoTrue(cfg GoTrueConfig, logger *zap.Logger) *GoTrue {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	logger = logger.With(zap.String("component", "gotrue"))

	newClient := func(retries int) *retryablehttp.Client {
		rc := retryablehttp.NewClient()
		rc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		rc.RetryMax = retries
		rc.RetryWaitMin = 100 * time.Millisecond
		rc.RetryWaitMax = time.Second
		rc.Logger = leveledZap{logger.Sugar()}
		// hand the last response back instead of a "giving up" error
		rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
		return rc
	}

	return &GoTrue{
		baseURL:  strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:  cfg.AnonKey,
		adminKey: cfg.ServiceRoleKey,
		once:     newClient(0),
		retrying: newClient(2),
		logger:   logger,
	}
}

type gotrueUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata domain.AccountMetadata `json:"user_metadata"`
	CreatedAt    time.Time              `json:"created_at"`
	Identities   *[]json.RawMessage     `json:"identities"`
}

func (u *gotrueUser) toDomain() *domain.AccountIdentity {
	return &domain.AccountIdentity{
		ID:        u.ID,
		Email:     u.Email,
		Metadata:  u.UserMetadata,
		CreatedAt: u.CreatedAt,
	}
}

type gotrueSession struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	ExpiresAt   int64       `json:"expires_at"`
	User        *gotrueUser `json:"user"`
}

// signupResponse is either a bare user (confirmation required) or a session
// with an embedded user (auto-confirm).
type signupResponse struct {
	gotrueUser
	User *gotrueUser `json:"user"`
}

func (g *GoTrue) CreateAccount(ctx context.Context, email, password string, meta domain.AccountMetadata, redirectTo string) (*domain.AccountIdentity, error) {
	endpoint := g.baseURL + "/signup"
	if redirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     meta,
	}

	var out signupResponse
	if err := g.call(ctx, http.MethodPost, endpoint, g.anonKey, "", body, &out); err != nil {
		return nil, err
	}
	user := &out.gotrueUser
	if out.User != nil {
		user = out.User
	}
	// With confirmations on, an existing address gets an obfuscated user without identities.
	if user.Identities != nil && len(*user.Identities) == 0 {
		return nil, &xerrors.ProviderError{
			Status:  http.StatusBadRequest,
			Message: "User already registered",
			Code:    "user_already_exists",
			Err:     xerrors.ErrEmailAlreadyInUse,
		}
	}
	if user.ID == "" {
		return nil, nil
	}
	return user.toDomain(), nil
}

func (g *GoTrue) DeleteAccount(ctx context.Context, accountID string) error {
	endpoint := g.baseURL + "/admin/users/" + url.PathEscape(accountID)
	err := g.call(ctx, http.MethodDelete, endpoint, g.adminKey, g.adminKey, nil, nil)
	var perr *xerrors.ProviderError
	if errors.As(err, &perr) && perr.Status == http.StatusNotFound {
		return xerrors.ErrAccountNotFound
	}
	return err
}

func (g *GoTrue) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var out gotrueSession
	err := g.call(ctx, http.MethodPost, g.baseURL+"/token?grant_type=password", g.anonKey, "",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		var perr *xerrors.ProviderError
		if errors.As(err, &perr) && perr.Status == http.StatusBadRequest {
			return nil, xerrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if out.AccessToken == "" || out.User == nil {
		return nil, xerrors.ErrInvalidCredentials
	}

	expires := time.Unix(out.ExpiresAt, 0).UTC()
	if out.ExpiresAt == 0 {
		expires = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second).UTC()
	}
	return &domain.Session{
		AccessToken: out.AccessToken,
		TokenType:   out.TokenType,
		ExpiresAt:   expires,
		User:        *out.User.toDomain(),
	}, nil
}

func (g *GoTrue) SignOut(ctx context.Context, accessToken string) error {
	err := g.call(ctx, http.MethodPost, g.baseURL+"/logout", g.anonKey, accessToken, nil, nil)
	var perr *xerrors.ProviderError
	if errors.As(err, &perr) && (perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden) {
		return xerrors.ErrInvalidToken
	}
	return err
}

func (g *GoTrue) GetUser(ctx context.Context, accessToken string) (*domain.AccountIdentity, error) {
	var out gotrueUser
	err := g.call(ctx, http.MethodGet, g.baseURL+"/user", g.anonKey, accessToken, nil, &out)
	if err != nil {
		var perr *xerrors.ProviderError
		if errors.As(err, &perr) && (perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden) {
			return nil, xerrors.ErrInvalidToken
		}
		return nil, err
	}
	return out.toDomain(), nil
}

// FindByEmail pages through the admin user list; GoTrue has no lookup by email.
func (g *GoTrue) FindByEmail(ctx context.Context, email string) (*domain.AccountIdentity, error) {
	for page := 1; page <= adminUsersMaxPage; page++ {
		var out struct {
			Users []gotrueUser `json:"users"`
		}
		endpoint := g.baseURL + "/admin/users?page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(adminUsersPerPage)
		if err := g.call(ctx, http.MethodGet, endpoint, g.adminKey, g.adminKey, nil, &out); err != nil {
			return nil, err
		}
		for i := range out.Users {
			if strings.EqualFold(out.Users[i].Email, email) {
				return out.Users[i].toDomain(), nil
			}
		}
		if len(out.Users) < adminUsersPerPage {
			break
		}
	}
	return nil, xerrors.ErrAccountNotFound
}

func (g *GoTrue) call(ctx context.Context, method, endpoint, apiKey, bearer string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	client := g.once
	if method == http.MethodGet || method == http.MethodDelete {
		client = g.retrying
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		perr := decodeProviderError(resp.StatusCode, data)
		g.logger.Debug("provider error",
			zap.String("method", method),
			zap.String("path", req.URL.Path),
			zap.Int("status", perr.Status),
			zap.String("code", perr.Code))
		return perr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// decodeProviderError reads the error shapes GoTrue has used across versions:
// {msg, error_code, code:int}, {message}, and OAuth style {error, error_description}.
func decodeProviderError(status int, body []byte) *xerrors.ProviderError {
	var raw map[string]interface{}
	_ = json.Unmarshal(body, &raw)

	str := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := raw[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}

	perr := &xerrors.ProviderError{
		Status:  status,
		Message: str("msg", "message", "error_description", "error"),
		Code:    str("error_code", "code", "error"),
	}
	if perr.Message == "" {
		perr.Message = http.StatusText(status)
	}
	if isDuplicateEmail(perr) {
		perr.Err = xerrors.ErrEmailAlreadyInUse
	}
	return perr
}

func isDuplicateEmail(perr *xerrors.ProviderError) bool {
	switch perr.Code {
	case "user_already_exists", "email_exists":
		return true
	}
	return strings.Contains(strings.ToLower(perr.Message), "already registered")
}

// leveledZap adapts zap to retryablehttp.LeveledLogger.
type leveledZap struct{ s *zap.SugaredLogger }

func (l leveledZap) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledZap) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l leveledZap) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledZap) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
