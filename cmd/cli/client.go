package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aryan0dhankhar/taskdesk/internal/handler"
)

// apiClient talks to the TaskDesk HTTP API with the stored session token.
type apiClient struct {
	baseURL  string
	tokenDir string
	http     *http.Client
}

func newAPIClient() *apiClient {
	base := os.Getenv("TASKDESK_API")
	if base == "" {
		base = "http://localhost:8080"
	}
	home, _ := os.UserHomeDir()
	return &apiClient{
		baseURL:  strings.TrimRight(base, "/"),
		tokenDir: filepath.Join(home, ".taskdesk"),
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int
	Message string
	Field   string
}

func (e *apiError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Field, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

var errNotLoggedIn = errors.New("not logged in; run: taskdesk auth login")

func (c *apiClient) tokenFile() string {
	return filepath.Join(c.tokenDir, "token")
}

func (c *apiClient) saveToken(token string) error {
	if err := os.MkdirAll(c.tokenDir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.tokenFile(), []byte(token), 0o600)
}

func (c *apiClient) loadToken() string {
	data, _ := os.ReadFile(c.tokenFile())
	return strings.TrimSpace(string(data))
}

func (c *apiClient) clearToken() error {
	err := os.Remove(c.tokenFile())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// do sends body as JSON and decodes a JSON answer into out (when non-nil).
func (c *apiClient) do(method, path string, query url.Values, body, out any, authed bool) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, target, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.loadToken()
		if token == "" {
			return errNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e handler.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error, Field: e.Field}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
