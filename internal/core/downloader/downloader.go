// Package downloader provides functionality to download files from URLs.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrBadStatus is wrapped by errors for non-200 responses.
var ErrBadStatus = errors.New("unexpected status code")

const (
	defaultRetryMax = 3
	defaultTimeout  = 5 * time.Minute
)

// Options configures a Downloader. The zero value is usable.
type Options struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	// HTTPClient is the underlying client; its Timeout is replaced by Timeout.
	HTTPClient *http.Client
	UserAgent  string
	Logger     *log.Logger
}

// Downloader fetches content over HTTP, retrying transient failures.
type Downloader struct {
	client    *retryablehttp.Client
	userAgent string
	logger    *log.Logger
}

// New creates a Downloader from opts.
func New(opts Options) *Downloader {
	client := retryablehttp.NewClient()
	client.RetryMax = defaultRetryMax
	if opts.RetryMax > 0 {
		client.RetryMax = opts.RetryMax
	}
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		client.HTTPClient = &c
	}
	client.HTTPClient.Timeout = timeout

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	client.Logger = leveledLogger{logger}
	// Hand the final response back so status errors keep their code.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Downloader{client: client, userAgent: opts.UserAgent, logger: logger}
}

// Fetch downloads the content at url.
// It returns the content as a byte slice or an error if the download fails
// or if the HTTP status code is not 200 OK.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	return d.FetchWithHeader(ctx, url, nil)
}

// FetchWithHeader is Fetch with extra request headers, such as a host's
// authorization header.
func (d *Downloader) FetchWithHeader(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request to %s: %w", url, err)
	}
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform GET request to %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download from %s: received status code %d: %w", url, resp.StatusCode, ErrBadStatus)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", url, err)
	}

	d.logger.Debug("downloaded", "url", url, "bytes", len(body))
	return body, nil
}

// leveledLogger adapts a charm logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l *log.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.l.Error(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.l.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.l.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.l.Warn(msg, keysAndValues...)
}
