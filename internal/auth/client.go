// Package auth is a client for the username and password authentication
// endpoint. A successful log in or registration yields an access token.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/tasks/internal/core/logging"
)

// ErrBadCredentials is returned when the server rejects the username and
// password with HTTP 400.
var ErrBadCredentials = errors.New("Incorrect username or password.") //nolint:staticcheck // shown to users verbatim

// ServerError is an {"error": ...} body returned by the server.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("auth server: %s (status %d)", e.Message, e.Status)
}

// Config holds the endpoint settings.
type Config struct {
	URL       string
	AppID     string
	RealmPath string
	Timeout   time.Duration
}

// Client posts credentials to the authentication endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates a client. A nil httpClient uses one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  logging.Component("auth"),
	}
}

type request struct {
	Provider string `json:"provider"`
	Data     string `json:"data"`
	Password string `json:"password"`
	Register int    `json:"register,omitempty"`
	AppID    string `json:"app_id"`
	Path     string `json:"path"`
}

type response struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// LogIn exchanges a username and password for a token.
func (c *Client) LogIn(ctx context.Context, username, password string) (string, error) {
	return c.post(ctx, username, password, false)
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	return c.post(ctx, username, password, true)
}

func (c *Client) post(ctx context.Context, username, password string, register bool) (string, error) {
	body := request{
		Provider: "password",
		Data:     username,
		Password: password,
		AppID:    c.cfg.AppID,
		Path:     c.cfg.RealmPath,
	}
	if register {
		body.Register = 1
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", c.cfg.URL).Bool("register", register).Str("user", username).Msg("posting credentials")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post credentials: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		return "", ErrBadCredentials
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode auth response (status %d): %w", resp.StatusCode, err)
	}
	if out.Token != "" {
		return out.Token, nil
	}

	msg := out.Error
	if msg == "" {
		msg = "failed getting token"
	}
	return "", &ServerError{Status: resp.StatusCode, Message: msg}
}
