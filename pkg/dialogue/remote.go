package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteCache delegates cache operations to a dialogue cache server
// over HTTP. A non-success response is a fatal integration error, not
// a miss: silently proceeding would cause duplicate model calls or
// lost answers.
type RemoteCache struct {
	baseURL    string
	httpClient *http.Client
}

var _ Cache = (*RemoteCache)(nil)

// NewRemoteCache creates a client for the dialogue cache server at
// baseURL (e.g. "https://cache.example.com").
func NewRemoteCache(baseURL string) *RemoteCache {
	return &RemoteCache{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *RemoteCache) post(ctx context.Context, path string, d *Dialogue) ([]byte, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dialogue: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dialogue cache request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dialogue cache response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dialogue cache server returned status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

// Get fetches a cached answer from the server. The server answers the
// literal string "None" on a miss; it may also compute the answer
// itself when the model version matches its own provider, in which
// case the result is already cached server-side.
func (c *RemoteCache) Get(ctx context.Context, d *Dialogue) (string, bool, error) {
	data, err := c.post(ctx, "/api/fetch_dialogue", d)
	if err != nil {
		return "", false, err
	}

	answer := string(data)
	// The server responds with a JSON-encoded string.
	var decoded string
	if err := json.Unmarshal(data, &decoded); err == nil {
		answer = decoded
	}
	if answer == "None" {
		return "", false, nil
	}
	return answer, true, nil
}

func (c *RemoteCache) Put(ctx context.Context, d *Dialogue) error {
	if d.Answer == nil {
		return ErrNoAnswer
	}
	_, err := c.post(ctx, "/api/put_dialogue", d)
	return err
}
