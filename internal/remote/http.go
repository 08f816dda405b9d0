package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldside/rostervault/pkg/types"
)

// HTTPStore talks to a REST replica. Entity state lives at
// {base}/v1/partitions/{principal}/{entityType}/{entityID}; PUT upserts,
// DELETE removes, GET fetches.
type HTTPStore struct {
	base   string
	token  string
	client *http.Client
}

// NewHTTPStore creates a client for the replica at baseURL. token is sent as
// a bearer credential on every request.
func NewHTTPStore(baseURL, token string) *HTTPStore {
	return &HTTPStore{
		base:   baseURL,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPStore) entityURL(principalID, entityType, entityID string) string {
	return fmt.Sprintf("%s/v1/partitions/%s/%s/%s",
		s.base,
		url.PathEscape(principalID),
		url.PathEscape(entityType),
		url.PathEscape(entityID))
}

func (s *HTTPStore) do(ctx context.Context, method, u string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	return resp, nil
}

// checkStatus maps replica status codes onto the store's error contract.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return types.ErrAuthExpired
	case resp.StatusCode == http.StatusNotFound:
		return types.ErrNotFound
	default:
		return fmt.Errorf("remote replied %s", resp.Status)
	}
}

func (s *HTTPStore) Upsert(ctx context.Context, principalID, entityType, entityID string, payload json.RawMessage, updatedAt int64) error {
	body, err := json.Marshal(Record{Payload: payload, UpdatedAt: updatedAt})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	resp, err := s.do(ctx, http.MethodPut, s.entityURL(principalID, entityType, entityID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (s *HTTPStore) Delete(ctx context.Context, principalID, entityType, entityID string) error {
	resp, err := s.do(ctx, http.MethodDelete, s.entityURL(principalID, entityType, entityID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Deleting an entity the replica never saw is a success.
	if err := checkStatus(resp); err != nil && err != types.ErrNotFound {
		return err
	}
	return nil
}

func (s *HTTPStore) Fetch(ctx context.Context, principalID, entityType, entityID string) (Record, error) {
	resp, err := s.do(ctx, http.MethodGet, s.entityURL(principalID, entityType, entityID), nil)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
