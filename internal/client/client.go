// Package client provides an HTTP client for the StudyMate server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mgersbach/studymate/internal/metrics"
	"github.com/mgersbach/studymate/internal/models"
	"github.com/mgersbach/studymate/internal/server"
)

// Client talks to the StudyMate HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
// If baseURL is empty, uses STUDYMATE_SERVER_URL env var or defaults to localhost:8585.
// Timeout can be configured via STUDYMATE_CLIENT_TIMEOUT env var (default 5m for LLM calls).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("STUDYMATE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8585"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 5 * time.Minute
	if t := os.Getenv("STUDYMATE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type apiError struct {
	Error string `json:"error"`
}

// do sends a request and decodes the JSON response into result.
// Non-2xx responses are turned into errors using the server's error body.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error: %s", apiErr.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(raw))
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Chat sends a message and returns the companion's reply.
func (c *Client) Chat(ctx context.Context, userID, message, apiKey string, history []models.Turn) (string, error) {
	var resp server.ChatResponse
	err := c.do(ctx, http.MethodPost, "/api/chat", server.ChatRequest{
		UserID:  userID,
		Message: message,
		APIKey:  apiKey,
		History: history,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// ChatStream sends a message over a websocket and invokes onChunk for
// each visible piece of the reply as it is generated. Returns the
// final cleaned reply.
func (c *Client) ChatStream(
	ctx context.Context,
	userID, message, apiKey string,
	history []models.Turn,
	onChunk func(chunk string),
) (string, error) {
	wsURL := c.baseURL + "/api/chat/ws"
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	err = conn.WriteJSON(server.ChatRequest{
		UserID:  userID,
		Message: message,
		APIKey:  apiKey,
		History: history,
	})
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}

	for {
		var event server.StreamEvent
		if err := conn.ReadJSON(&event); err != nil {
			return "", fmt.Errorf("read event: %w", err)
		}
		switch event.Type {
		case "chunk":
			if onChunk != nil {
				onChunk(event.Text)
			}
		case "done":
			return event.Reply, nil
		case "error":
			return "", fmt.Errorf("server error: %s", event.Error)
		}
	}
}

// ImportTimetable uploads a spreadsheet and replaces the timetable.
func (c *Client) ImportTimetable(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/timetable/import", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("server error: %s", apiErr.Error)
		}
		return "", fmt.Errorf("server error: %s - %s", resp.Status, string(raw))
	}

	var result struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return result.Message, nil
}

// SyncTimetable tells the server to re-fetch the timetable from a URL.
// If sourceURL is empty the server falls back to its configured source.
func (c *Client) SyncTimetable(ctx context.Context, sourceURL string) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	body := map[string]string{}
	if sourceURL != "" {
		body["url"] = sourceURL
	}
	if err := c.do(ctx, http.MethodPost, "/api/timetable/sync", body, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// ListTimetable returns the current timetable.
func (c *Client) ListTimetable(ctx context.Context) ([]server.TimetableEntryResponse, error) {
	var entries []server.TimetableEntryResponse
	if err := c.do(ctx, http.MethodGet, "/api/timetable", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListMemories returns a user's memories in retrieval rank order.
func (c *Client) ListMemories(ctx context.Context, userID string) ([]server.MemoryResponse, error) {
	var memories []server.MemoryResponse
	path := "/api/memories?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &memories); err != nil {
		return nil, err
	}
	return memories, nil
}

// DeleteMemory removes a single memory by id.
func (c *Client) DeleteMemory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/memories/"+url.PathEscape(id), nil, nil)
}

// GetStats returns the server's in-memory runtime statistics.
func (c *Client) GetStats(ctx context.Context) (*metrics.Snapshot, error) {
	var stats metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health checks whether the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
