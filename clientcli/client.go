package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a filevault server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			Token:    cfg.Token,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Register creates an account on the server.
func (c *Client) Register(ctx context.Context, username, password string) error {
	_, err := c.postCredentials(ctx, "/users/register", username, password)
	return err
}

// Login exchanges credentials for a bearer token. The token is returned
// but not stored; callers persist it on the profile.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := c.postCredentials(ctx, "/users/login", username, password)
	if err != nil {
		return "", err
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if login.JWTToken == "" {
		return "", errors.New("server returned no token")
	}

	return login.JWTToken, nil
}

// Whoami returns the identity bound to the client's token. The server
// responds with a plain-text "Logged in as <identity>" body.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	body, err := c.authedRequest(ctx, http.MethodGet, "/data/get_identity", "", nil)
	if err != nil {
		return "", err
	}

	identity := strings.TrimPrefix(strings.TrimSpace(string(body)), "Logged in as ")
	if identity == "" {
		return "", errors.New("server returned no identity")
	}

	return identity, nil
}

// Upload uploads a local file under the given file identifier.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: local path is required")
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	fileIdentifier := opts.FileIdentifier
	if fileIdentifier == "" {
		base := filepath.Base(opts.LocalPath)
		fileIdentifier = strings.TrimSuffix(base, filepath.Ext(base))
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Build the multipart body up front; uploads are small enough that
	// streaming via a pipe is not worth the complexity here.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("file_identifier", fileIdentifier); err != nil {
		return nil, fmt.Errorf("write field: %w", err)
	}
	for key, value := range opts.Metadata {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", key, err)
		}
	}

	part, err := writer.CreateFormFile("file", filepath.Base(opts.LocalPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	body, err := c.authedRequest(ctx, http.MethodPost, "/data/file", writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &UploadResult{
		LocalPath:      opts.LocalPath,
		FileIdentifier: fileIdentifier,
		Metadata:       metadata,
	}, nil
}

// Download fetches a file's bytes.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.FileIdentifier == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyIdentifier)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, nil, err
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/data/file/"+opts.FileIdentifier, "", nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		FileIdentifier: opts.FileIdentifier,
		Size:           resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filenameFromDisposition(resp.Header.Get("Content-Disposition"), opts.FileIdentifier)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Delete deletes one or more files from the server.
// Continues on error, collecting results for all identifiers.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.FileIdentifiers) == 0 {
		return nil, ErrNoIdentifiers
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	results := make([]DeleteResult, 0, len(opts.FileIdentifiers))

	for _, id := range opts.FileIdentifiers {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, c.deleteSingle(ctx, id))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, fileIdentifier string) DeleteResult {
	_, err := c.authedRequest(ctx, http.MethodDelete, "/data/file/"+fileIdentifier, "", nil)
	if err != nil {
		return DeleteResult{FileIdentifier: fileIdentifier, Deleted: false, Err: err}
	}
	return DeleteResult{FileIdentifier: fileIdentifier, Deleted: true}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// List returns the caller's file identifiers.
func (c *Client) List(ctx context.Context) (*ListResult, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	body, err := c.authedRequest(ctx, http.MethodGet, "/data/user_file", "", nil)
	if err != nil {
		return nil, err
	}

	var result ListResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &result, nil
}

// Metadata returns the stored metadata for a file identifier.
func (c *Client) Metadata(ctx context.Context, fileIdentifier string) (map[string]string, error) {
	if fileIdentifier == "" {
		return nil, fmt.Errorf("metadata: %w", ErrEmptyIdentifier)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	body, err := c.authedRequest(ctx, http.MethodGet, "/data/metadata/"+fileIdentifier, "", nil)
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return metadata, nil
}

// postCredentials sends a JSON username/password body to a public route.
func (c *Client) postCredentials(ctx context.Context, path, username, password string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// authedRequest sends a request with the bearer token attached and returns
// the response body.
func (c *Client) authedRequest(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, contentType, body)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Request, error) {
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, parseServerError(resp.StatusCode, body)
	}

	return body, nil
}

// filenameFromDisposition extracts the filename from a Content-Disposition
// header, falling back to the file identifier.
func filenameFromDisposition(disposition, fileIdentifier string) string {
	const marker = `filename="`
	if idx := strings.Index(disposition, marker); idx >= 0 {
		rest := disposition[idx+len(marker):]
		if end := strings.Index(rest, `"`); end > 0 {
			return filepath.Base(rest[:end])
		}
	}
	return fileIdentifier
}

// parseServerError extracts error information from a server response.
func parseServerError(statusCode int, body []byte) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return &APIError{StatusCode: statusCode, Body: envelope.Message}
	}
	return &APIError{StatusCode: statusCode, Body: string(body)}
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested file does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the token is missing, expired, or
	// the file belongs to someone else (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrConflict is returned when the username or file identifier is
	// already taken (409).
	ErrConflict = &APIError{StatusCode: http.StatusConflict}
)
