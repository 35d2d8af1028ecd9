// Package trainapi is the HTTP client for the external fine-tuning service:
// model registry, dataset storage and training orchestration.
package trainapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Options fields are unset.
const (
	DefaultBaseURL        = "http://localhost:8000"
	defaultRequestTimeout = 30 * time.Second
	defaultUploadTimeout  = 10 * time.Minute
	defaultConnectTimeout = 5 * time.Second
	maxErrorBody          = 4096
)

// API paths of the training service.
const (
	PathSupportedModels = "/api/supported-models"
	PathUploadDataset   = "/api/upload-dataset"
	PathStartTraining   = "/api/start-training"
	PathConfigSchema    = "/api/training-config-schema"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// RequestTimeout bounds list, start and schema calls.
	RequestTimeout time.Duration
	// UploadTimeout bounds dataset uploads.
	UploadTimeout  time.Duration
	ConnectTimeout time.Duration
	// HTTPClient overrides the default transport (tests).
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client talks to the training service. It is safe for concurrent use.
type Client struct {
	baseURL        string
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	httpClient     *http.Client
	log            zerolog.Logger
}

// New constructs a Client, applying defaults for unset options.
func New(opts Options) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		requestTimeout: opts.RequestTimeout,
		uploadTimeout:  opts.UploadTimeout,
		httpClient:     opts.HTTPClient,
		log:            zerolog.Nop(),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = defaultRequestTimeout
	}
	if c.uploadTimeout <= 0 {
		c.uploadTimeout = defaultUploadTimeout
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	if c.httpClient == nil {
		connect := opts.ConnectTimeout
		if connect <= 0 {
			connect = defaultConnectTimeout
		}
		tr := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connect,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          16,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		// Timeout stays 0: every call carries a context deadline instead.
		c.httpClient = &http.Client{Transport: tr, Timeout: 0}
	}
	return c
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends req, records metrics and logs, and decodes a 2xx JSON body into out.
// Non-2xx responses are returned as *StatusError.
func (c *Client) do(req *http.Request, op string, out any) error {
	rid := uuid.NewString()
	req.Header.Set("X-Request-ID", rid)
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(op, "error", time.Since(start))
		if ctxErr := req.Context().Err(); ctxErr != nil {
			err = ctxErr
		}
		c.log.Warn().Str("op", op).Str("request_id", rid).Dur("dur", time.Since(start)).Err(err).Msg("remote request failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	observe(op, itoa(resp.StatusCode), time.Since(start))
	c.log.Debug().Str("op", op).Str("request_id", rid).Int("status", resp.StatusCode).Dur("dur", time.Since(start)).Msg("remote request")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newStatusError(op, resp.StatusCode, b)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// fast integer to ascii for status code labels
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
