// Package wordpress provides a client for the WordPress REST API (wp/v2).
// It covers the five calls the publish workflow needs: create post, upload
// media, set alt text, attach featured media, and update post content.
//
// Every call is a non-idempotent mutation, so the client never retries; a
// circuit breaker still protects the service from hammering a WordPress
// instance that is down.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"blogsmith/internal/resilience/circuitbreaker"
)

const (
	// defaultTimeout bounds a single API call. Media uploads are the
	// slowest operation and set the ceiling.
	defaultTimeout = 60 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 * 1024 * 1024
)

// Config contains configuration for the WordPress API client.
type Config struct {
	// BaseURL is the REST API root, e.g. https://example.com/wp-json/wp/v2.
	BaseURL string

	// Username is the WordPress account the service publishes as.
	Username string

	// AppPassword is the application password for Username. Application
	// passwords are scoped credentials; the account password is never used.
	AppPassword string

	// SiteURL is the public site root, used to build edit links in
	// notifications. Optional.
	SiteURL string

	// Timeout is the HTTP request timeout for a single API call.
	Timeout time.Duration
}

// Validate checks that the configuration is complete and well-formed.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url cannot be empty")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url must use http or https scheme, got %q", u.Scheme)
	}

	if c.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if c.AppPassword == "" {
		return fmt.Errorf("app password cannot be empty")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	return nil
}

// LoadConfig loads WordPress configuration from environment variables.
//
// Environment variables:
//   - WORDPRESS_BASE_URL: REST API root (required)
//   - WORDPRESS_USERNAME: publishing account (required)
//   - WORDPRESS_APP_PASSWORD: application password (required)
//   - WORDPRESS_SITE_URL: public site root for edit links (optional)
func LoadConfig() (Config, error) {
	config := Config{
		BaseURL:     strings.TrimRight(os.Getenv("WORDPRESS_BASE_URL"), "/"),
		Username:    os.Getenv("WORDPRESS_USERNAME"),
		AppPassword: os.Getenv("WORDPRESS_APP_PASSWORD"),
		SiteURL:     strings.TrimRight(os.Getenv("WORDPRESS_SITE_URL"), "/"),
		Timeout:     defaultTimeout,
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid wordpress config: %w", err)
	}

	return config, nil
}

// Client talks to one WordPress site. The Basic auth header is derived once
// from the configured credentials.
type Client struct {
	config         Config
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	authHeader     string
}

// NewClient creates a new WordPress client with the given configuration.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	credentials := config.Username + ":" + config.AppPassword

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		circuitBreaker: circuitbreaker.New(circuitbreaker.WordPressAPIConfig()),
		authHeader:     "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
	}
}

// Breaker returns the client's circuit breaker for health reporting.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.circuitBreaker
}

// EditLink returns the admin edit URL for a post, or an empty string when
// no site URL is configured.
func (c *Client) EditLink(postID int64) string {
	if c.config.SiteURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/wp-admin/post.php?post=%d&action=edit", c.config.SiteURL, postID)
}

// postResponse is the subset of a WordPress post payload the client uses.
type postResponse struct {
	ID      int64 `json:"id"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
}

// mediaResponse is the subset of a WordPress media payload the client uses.
type mediaResponse struct {
	ID int64 `json:"id"`
}

// CreatePost creates a post with the given title, content, and status and
// returns the CMS-assigned post ID. Status is passed through verbatim;
// WordPress decides whether it is acceptable.
func (c *Client) CreatePost(ctx context.Context, title, content, status string) (int64, error) {
	return c.createPost(ctx, title, content, status, "")
}

// CreatePostWithExcerpt is CreatePost with an explicit excerpt field, used
// when the publish workflow derives one from rendered content.
func (c *Client) CreatePostWithExcerpt(ctx context.Context, title, content, status, excerpt string) (int64, error) {
	return c.createPost(ctx, title, content, status, excerpt)
}

func (c *Client) createPost(ctx context.Context, title, content, status, excerpt string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.execute(func() (interface{}, error) {
		payload := map[string]interface{}{
			"title":   title,
			"content": content,
			"status":  status,
		}
		if excerpt != "" {
			payload["excerpt"] = excerpt
		}

		var post postResponse
		if err := c.doJSON(ctx, c.config.BaseURL+"/posts", payload, &post); err != nil {
			return nil, err
		}

		if post.ID == 0 {
			return nil, fmt.Errorf("wordpress response missing post id")
		}

		return post.ID, nil
	})
	if err != nil {
		return 0, fmt.Errorf("create post: %w", err)
	}

	postID := result.(int64)
	slog.InfoContext(ctx, "Post created",
		slog.Int64("post_id", postID),
		slog.String("status", status))

	return postID, nil
}

// UploadMedia uploads the file at path to the media library and returns the
// CMS-assigned media ID. The multipart field name is "file" and the part's
// filename is the basename of path, which WordPress uses to infer the type.
func (c *Client) UploadMedia(ctx context.Context, path, contentType string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	file, err := os.Open(path) // #nosec G304 -- path is a service-created temp file
	if err != nil {
		return 0, fmt.Errorf("open media file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(path))))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return 0, fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return 0, fmt.Errorf("copy media bytes: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("finalize multipart body: %w", err)
	}

	result, err := c.execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/media", bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, fmt.Errorf("create http request: %w", err)
		}
		req.Header.Set("Authorization", c.authHeader)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		respBody, err := c.send(req)
		if err != nil {
			return nil, err
		}

		var media mediaResponse
		if err := json.Unmarshal(respBody, &media); err != nil {
			return nil, fmt.Errorf("decode wordpress response: %w", err)
		}

		if media.ID == 0 {
			return nil, fmt.Errorf("wordpress response missing media id")
		}

		return media.ID, nil
	})
	if err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}

	mediaID := result.(int64)
	slog.InfoContext(ctx, "Media uploaded",
		slog.Int64("media_id", mediaID),
		slog.String("filename", filepath.Base(path)))

	return mediaID, nil
}

// UpdateAltText sets the alt text on a media item.
func (c *Client) UpdateAltText(ctx context.Context, mediaID int64, altText string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	_, err := c.execute(func() (interface{}, error) {
		endpoint := fmt.Sprintf("%s/media/%d", c.config.BaseURL, mediaID)
		payload := map[string]string{"alt_text": altText}
		return nil, c.doJSON(ctx, endpoint, payload, nil)
	})
	if err != nil {
		return fmt.Errorf("update alt text: %w", err)
	}

	return nil
}

// SetFeaturedMedia attaches mediaID as the post's featured image and returns
// the updated post's rendered content, which the publish workflow reuses to
// append the photo credit.
func (c *Client) SetFeaturedMedia(ctx context.Context, postID, mediaID int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.execute(func() (interface{}, error) {
		endpoint := fmt.Sprintf("%s/posts/%d", c.config.BaseURL, postID)
		payload := map[string]int64{"featured_media": mediaID}

		var post postResponse
		if err := c.doJSON(ctx, endpoint, payload, &post); err != nil {
			return nil, err
		}

		return post.Content.Rendered, nil
	})
	if err != nil {
		return "", fmt.Errorf("set featured media: %w", err)
	}

	slog.InfoContext(ctx, "Featured media attached",
		slog.Int64("post_id", postID),
		slog.Int64("media_id", mediaID))

	return result.(string), nil
}

// UpdateContent replaces the post's content.
func (c *Client) UpdateContent(ctx context.Context, postID int64, content string) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	_, err := c.execute(func() (interface{}, error) {
		endpoint := fmt.Sprintf("%s/posts/%d", c.config.BaseURL, postID)
		payload := map[string]string{"content": content}
		return nil, c.doJSON(ctx, endpoint, payload, nil)
	})
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}

	return nil
}

// execute runs one API call through the circuit breaker.
func (c *Client) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := c.circuitBreaker.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("wordpress api circuit breaker open, request rejected",
				slog.String("service", "wordpress-api"),
				slog.String("state", c.circuitBreaker.State().String()))
			return nil, fmt.Errorf("wordpress api unavailable: circuit breaker open")
		}
		return nil, err
	}
	return result, nil
}

// doJSON posts a JSON payload to endpoint and decodes the response into out
// when out is non-nil.
func (c *Client) doJSON(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.send(req)
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode wordpress response: %w", err)
		}
	}

	return nil
}

// send executes the request and returns the response body, classifying
// non-2xx statuses with the package error types.
func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, body)
	}

	return body, nil
}

// escapeQuotes mirrors mime/multipart's internal quote escaping for
// Content-Disposition filenames.
func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
