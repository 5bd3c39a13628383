// Package api is the HTTP client for the modus backend. It mirrors the
// server's wire contract: bare-array validation errors, status 200 for
// failed logins, and the session token carried in the X-Session-Token
// header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidCredentials is returned by Login when the server rejects
// the email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnauthorized is returned when a privileged call is rejected by the
// authorization gate.
type ErrUnauthorized struct {
	Reason string
}

func (e *ErrUnauthorized) Error() string { return "unauthorized: " + e.Reason }

// ValidationError carries the field messages a request was rejected
// with.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

const tokenHeader = "X-Session-Token"

// Client talks to one backend. It remembers the session token from the
// last successful Login and presents it on privileged calls.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Token returns the current session token, empty before login.
func (c *Client) Token() string { return c.token }

func (c *Client) postJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	return c.http.Do(req)
}

// decodeReply closes the body and maps the server's rejection shapes to
// typed errors: a 400 array becomes *ValidationError, a 400 object
// becomes *ErrUnauthorized.
func decodeReply(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusBadRequest {
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err == nil {
			return &ValidationError{Messages: msgs}
		}
		var obj struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Error != "" {
			return &ErrUnauthorized{Reason: obj.Error}
		}
		return fmt.Errorf("bad request: %s", raw)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error: %s: %s", resp.Status, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, username, password string) error {
	resp, err := c.postJSON(ctx, http.MethodPost, "/api/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	return decodeReply(resp, nil)
}

// Login authenticates and stores the minted session token on the
// client. A credentials mismatch comes back as ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.postJSON(ctx, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	var out struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := decodeReply(resp, &out); err != nil {
		return err
	}
	// login failures share the success status, so the body decides
	if out.Token == "" {
		return ErrInvalidCredentials
	}
	c.token = out.Token
	return nil
}

// CreatePost stores a post and returns its content-addressed id.
func (c *Client) CreatePost(ctx context.Context, metadata, content string) (string, error) {
	resp, err := c.postJSON(ctx, http.MethodPost, "/api/post", map[string]string{
		"metadata": metadata,
		"content":  content,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := decodeReply(resp, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UploadImage sends the file as the `img` multipart field and returns
// the id the server stored it under.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("img", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/img", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := decodeReply(resp, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// DeleteImage removes a previously uploaded file by id.
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	resp, err := c.postJSON(ctx, http.MethodDelete, "/api/img", map[string]string{"id": id})
	if err != nil {
		return err
	}
	return decodeReply(resp, nil)
}
