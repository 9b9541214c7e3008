package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"git.sr.ht/~jakintosh/gallery/internal/api"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)
const LogLevelDefault = LogLevelError

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRequest      = errors.New("request failed")
	ErrResponse     = errors.New("invalid response")
)

var _logLevel LogLevel = LogLevelDefault

func _log(level LogLevel, format string, v ...any) {
	if _logLevel >= level {
		log.Printf(format, v...)
	}
}

func SetLogLevel(logLevel LogLevel) {
	_logLevel = logLevel
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the gallery at baseURL. A nil httpClient uses
// http.DefaultClient, which sends no cookies.
func New(
	baseURL string,
	httpClient *http.Client,
) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// ListGalleries fetches the caller's galleries, newest first. Errors are
// [ErrUnauthorized], [ErrRequest] or [ErrResponse].
func (c *Client) ListGalleries(ctx context.Context) (*api.GalleriesResponse, error) {
	response := new(api.GalleriesResponse)
	if err := c.get(ctx, "/api/galleries", response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) get(
	ctx context.Context,
	path string,
	response any,
) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}

	_log(LogLevelDebug, "GET %s\n", url)
	res, err := c.http.Do(req)
	if err != nil {
		_log(LogLevelError, "failed to get %s: %v\n", url, err)
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case res.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s", ErrResponse, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(response); err != nil {
		_log(LogLevelError, "failed to decode response from %s: %v\n", url, err)
		return fmt.Errorf("%w: %v", ErrResponse, err)
	}
	return nil
}
