package heroku

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/heroku-tools/internal/config"
	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
	"github.com/olusolaa/heroku-tools/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	acceptHeader = "application/vnd.heroku+json; version=3"
	maxBodyBytes = 4 << 20
)

type release struct {
	Version     int       `json:"version"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        struct {
		Email string `json:"email"`
	} `json:"user"`
	App struct {
		Name string `json:"name"`
	} `json:"app"`
}

func (r release) toDomain(app string) *domain.ReleaseInfo {
	name := r.App.Name
	if name == "" {
		name = app
	}
	return &domain.ReleaseInfo{
		Version:     r.Version,
		Description: r.Description,
		DeployedBy:  r.User.Email,
		DeployedAt:  r.UpdatedAt,
		Application: name,
	}
}

// Client reads releases and config vars from the Heroku Platform API.
type Client struct {
	baseURL  string
	token    string
	maxRange int
	http     *http.Client
	limiter  *Limiter
	logger   ports.Logger
}

var _ ports.ReleaseProvider = (*Client)(nil)

type ClientOption func(*Client)

// WithHTTPClient replaces the default client (used by tests).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.http = c }
}

func NewClient(cfg config.HerokuConfig, logger ports.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.APIURL, "/"),
		token:    cfg.APIToken,
		maxRange: cfg.MaxRange,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  NewLimiter(cfg.RateLimit, logger),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, app, endpoint string, headers map[string]string, out any) error {
	what := fmt.Sprintf("%s of %s", endpoint, app)
	if err := c.limiter.Wait(ctx); err != nil {
		return handleTransportError(ctx, what, err)
	}

	u := fmt.Sprintf("%s/apps/%s/%s", c.baseURL, url.PathEscape(app), endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "cannot build Heroku API request")
	}
	requestID := uuid.NewString()
	req.SetBasicAuth("", c.token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Request-Id", requestID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger := c.logger.WithFields(map[string]any{"request_id": requestID, "app": app})
	logger.Debugf(ctx, "GET %s", u)
	resp, err := c.http.Do(req)
	if err != nil {
		return handleTransportError(ctx, what, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return handleTransportError(ctx, what, err)
	}
	logger.Debugf(ctx, "GET %s returned %d (%d bytes)", u, resp.StatusCode, len(body))
	if resp.StatusCode > 299 {
		return handleStatus(what, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.CodeReleaseLookup, fmt.Sprintf("cannot decode Heroku API response for %s", what))
	}
	return nil
}

// LatestRelease returns the newest release whose description marks a code
// deployment; configuration and add-on releases are skipped.
func (c *Client) LatestRelease(ctx context.Context, app string) (*domain.ReleaseInfo, error) {
	var releases []release
	headers := map[string]string{"Range": fmt.Sprintf("version;max=%d,order=desc", c.maxRange)}
	if err := c.get(ctx, app, "releases", headers, &releases); err != nil {
		return nil, err
	}
	for _, r := range releases {
		if domain.IsDeployment(r.Description) {
			return r.toDomain(app), nil
		}
		c.logger.Infof(ctx, "Ignoring release: %s", r.Description)
	}
	return nil, errors.NewUserFacing(errors.CodeNoDeployableRelease,
		fmt.Sprintf("No deployments found in API response for %s (checked %d releases)", app, len(releases)),
		"Raise heroku.max_range (HEROKU_API_MAX_RANGE) to look further back.")
}

func (c *Client) ConfigVars(ctx context.Context, app string) (map[string]string, error) {
	vars := map[string]string{}
	if err := c.get(ctx, app, "config-vars", nil, &vars); err != nil {
		return nil, err
	}
	return vars, nil
}
