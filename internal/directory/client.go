package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zenon0777/payever-backend-assessment/internal/config"
	"github.com/zenon0777/payever-backend-assessment/internal/domain"
)

// DefaultBaseURL is the public directory users are resolved against.
const DefaultBaseURL = "https://reqres.in/api/users"

const (
	// DefaultMaxAvatarBytes caps an avatar download when none is configured.
	DefaultMaxAvatarBytes int64 = 5 << 20

	maxUserBodyBytes int64 = 1 << 20
)

// Errors
var (
	ErrUserNotFound = errors.New("directory user not found")
	ErrBodyTooLarge = errors.New("directory response exceeds size limit")
)

// StatusError reports an unexpected HTTP status from the directory.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory returned status %d for %s", e.Code, e.URL)
}

// Client talks to the external user directory over HTTP.
type Client struct {
	baseURL        string
	apiKey         string
	maxAvatarBytes int64
	httpClient     *http.Client
}

// NewClient creates a directory client from cfg.
func NewClient(cfg config.DirectoryConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxAvatar := cfg.MaxAvatarBytes
	if maxAvatar <= 0 {
		maxAvatar = DefaultMaxAvatarBytes
	}

	return &Client{
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		maxAvatarBytes: maxAvatar,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetUser retrieves a user by its directory ID. The raw response body is
// kept alongside the decoded data.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.DirectoryUser, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(userID))

	req, err := c.newRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	body, err := c.do(req, maxUserBodyBytes)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var envelope struct {
		Data *domain.DirectoryUserData `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode directory response: %w", err)
	}
	if envelope.Data == nil {
		return nil, ErrUserNotFound
	}

	return &domain.DirectoryUser{
		Raw:  json.RawMessage(body),
		Data: *envelope.Data,
	}, nil
}

// FetchAvatar downloads the image at avatarURL, without the directory API
// key, reading at most the configured avatar size.
func (c *Client) FetchAvatar(ctx context.Context, avatarURL string) ([]byte, error) {
	if avatarURL == "" {
		return nil, errors.New("avatar url is empty")
	}
	req, err := c.newRequest(ctx, avatarURL)
	if err != nil {
		return nil, err
	}
	return c.do(req, c.maxAvatarBytes)
}

func (c *Client) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// do executes req and reads at most limit bytes of a 2xx body.
func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	endpoint := req.URL.String()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, URL: endpoint}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, limit, endpoint)
	}
	return body, nil
}
