// Package server implements the client for a Jellyfin-compatible media server:
// playback reporting, user preferences, media segments and authentication.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/anisan-cli/finplay/auth"
	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/network"
	"github.com/spf13/viper"
)

// ErrNotConfigured is returned when no server URL is configured.
var ErrNotConfigured = errors.New("media server not configured")

// Config identifies the server and this client.
type Config struct {
	URL        string
	Token      string
	UserID     string
	DeviceID   string
	DeviceName string
	ClientName string
}

// Client talks to the media server over its JSON HTTP API.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
}

// New creates a client for cfg.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNotConfigured
	}

	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	if httpClient == nil {
		httpClient = network.Client
	}

	return &Client{cfg: cfg, base: base, http: httpClient}, nil
}

// FromConfig builds a client from the configuration and the keyring token.
// A missing token is not an error; the server will reject the calls that need one.
func FromConfig() (*Client, error) {
	token, err := auth.GetToken()
	if err != nil {
		log.Debugf("no server token in keyring: %v", err)
	}

	return New(Config{
		URL:        viper.GetString(key.ServerURL),
		Token:      token,
		UserID:     viper.GetString(key.ServerUserID),
		DeviceID:   viper.GetString(key.ServerDeviceID),
		DeviceName: viper.GetString(key.ServerDeviceName),
		ClientName: viper.GetString(key.ServerClientName),
	}, nil)
}

// DeviceID returns the device id this client reports as.
func (c *Client) DeviceID() string {
	return c.cfg.DeviceID
}

// authorization renders the MediaBrowser authorization header.
func (c *Client) authorization() string {
	fields := []string{
		fmt.Sprintf(`Client="%s"`, c.cfg.ClientName),
		fmt.Sprintf(`Device="%s"`, c.cfg.DeviceName),
		fmt.Sprintf(`DeviceId="%s"`, c.cfg.DeviceID),
		fmt.Sprintf(`Version="%s"`, constant.Version),
	}
	if c.cfg.Token != "" {
		fields = append(fields, fmt.Sprintf(`Token="%s"`, c.cfg.Token))
	}
	return "MediaBrowser " + strings.Join(fields, ", ")
}

// do performs one request. body and out are JSON encoded/decoded when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constant.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}
