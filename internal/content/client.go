// Package content fetches game content records from the content API.
package content

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

	"github.com/rs/zerolog/log"

	"github.com/dkwon12/partyround/internal/game"
)

// ErrNotFound marks a content id the API has no record for. Callers can
// reprompt instead of aborting.
var ErrNotFound = errors.New("content not found")

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the content API.
type Client struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

// NewClient builds a client for the given API. apiKey and token are
// optional; when set they are sent on every request.
func NewClient(baseURL, apiKey, token string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		headers: make(map[string]string),
	}
	if apiKey != "" {
		c.headers["apikey"] = apiKey
	}
	if token != "" {
		c.headers["Authorization"] = "Bearer " + token
	}
	return c
}

// Fetch retrieves one content record by id. The payload is normalized on
// the way in; shorthand forms the API allows (candidates as bare strings,
// a single answer instead of a list) land as full records.
func (c *Client) Fetch(ctx context.Context, id string) (*game.ContentRecord, error) {
	endpoint := c.baseURL + "/contents/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch content %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("content API returned status %d: %s", resp.StatusCode, string(body))
	}

	var wire wireContent
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode content %s: %w", id, err)
	}

	record := wire.toRecord()
	if record.ID == "" {
		record.ID = id
	}

	log.Debug().
		Str("content_id", record.ID).
		Str("mode", string(record.Mode)).
		Int("candidates", len(record.Candidates)).
		Int("questions", len(record.Questions)).
		Msg("content fetched")
	return record, nil
}
