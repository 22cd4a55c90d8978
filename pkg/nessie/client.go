package nessie

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/nessiecatalog/pkg/catalogerr"
	"github.com/foomo/nessiecatalog/pkg/metrics"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultUserAgent sent with every request unless overridden
const DefaultUserAgent = "nessiecatalog"

// Client talks to the v2 REST api of a versioned store
type (
	Client struct {
		l           *zap.Logger
		baseURL     string
		httpClient  *http.Client
		userAgent   string
		bearerToken string
	}
	Option func(*Client)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// New baseURL points to the api root, e.g. http://localhost:19120/api/v2
func New(l *zap.Logger, baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, catalogerr.NewValidationError("uri", "must not be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, catalogerr.NewValidationError("uri", "%s", err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, catalogerr.NewValidationError("uri", "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, catalogerr.NewValidationError("uri", "missing host in %q", baseURL)
	}

	inst := &Client{
		l:          l.Named("nessie"),
		baseURL:    strings.TrimSuffix(u.String(), "/"),
		httpClient: http.DefaultClient,
		userAgent:  DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Client) {
		o.httpClient = v
	}
}

func WithUserAgent(v string) Option {
	return func(o *Client) {
		o.userAgent = v
	}
}

func WithBearerToken(v string) Option {
	return func(o *Client) {
		o.bearerToken = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// do sends a single request. path is relative to the base url and must be
// escaped already. A nil result discards the response body.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, result any) error {
	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "failed to encode %s request", operation)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s request", operation)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(operation, "error", start)
		c.l.Debug("request failed",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %w", catalogerr.ErrTransport, method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.observe(operation, strconv.Itoa(resp.StatusCode), start)
	c.l.Debug("request",
		zap.String("operation", operation),
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("%w: %s %s: failed to read body: %w", catalogerr.ErrTransport, method, endpoint, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newResponseError(method, endpoint, resp.StatusCode, data)
	}

	if result == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s %s: empty response body", catalogerr.ErrDecode, method, endpoint)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: %s %s: %w", catalogerr.ErrDecode, method, endpoint, err)
	}
	return nil
}

func (c *Client) observe(operation, status string, start time.Time) {
	metrics.ClientRequestCounter.WithLabelValues(operation, status).Inc()
	metrics.ClientRequestDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// refPath escapes a possibly hash qualified reference for use as a path segment
func refPath(spec string) string {
	return url.PathEscape(spec)
}
