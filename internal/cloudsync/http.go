package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/habitu/internal/auth"
	"github.com/starford/habitu/internal/habit"
)

const tokenTTL = 5 * time.Minute

// HTTPTransport talks to the cloud snapshot API, authenticating each request
// with a short-lived JWT signed with the shared secret.
type HTTPTransport struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewHTTPTransport creates a transport for the API rooted at baseURL
// (for example http://host:8080/cloud).
func NewHTTPTransport(baseURL, secret string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  client,
	}
}

type snapshotBody struct {
	Habits json.RawMessage `json:"habits"`
}

// FetchSnapshot implements Transport.
func (t *HTTPTransport) FetchSnapshot(ctx context.Context, userID string) ([]habit.Habit, bool, error) {
	resp, err := t.do(ctx, http.MethodGet, "/snapshots/"+url.PathEscape(userID), userID, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, statusError(resp)
	}
	var body snapshotBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	habits, err := habit.DecodeCollection(body.Habits)
	if err != nil {
		return nil, false, err
	}
	return habits, true, nil
}

// PushSnapshot implements Transport.
func (t *HTTPTransport) PushSnapshot(ctx context.Context, userID string, habits []habit.Habit) error {
	data, err := habit.EncodeCollection(habits)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(snapshotBody{Habits: data})
	if err != nil {
		return err
	}
	return t.put(ctx, "/snapshots/"+url.PathEscape(userID), userID, payload)
}

// PushStats implements StatsPusher.
func (t *HTTPTransport) PushStats(ctx context.Context, userID string, stats UserStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return t.put(ctx, "/stats/"+url.PathEscape(userID), userID, payload)
}

func (t *HTTPTransport) put(ctx context.Context, path, userID string, payload []byte) error {
	resp, err := t.do(ctx, http.MethodPut, path, userID, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (t *HTTPTransport) do(ctx context.Context, method, path, userID string, payload []byte) (*http.Response, error) {
	token, err := auth.GenerateJWT(userID, t.secret, tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return t.client.Do(req)
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s %s: status %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, bytes.TrimSpace(msg))
}
