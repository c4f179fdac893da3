package storage

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
)

// SupabaseConfig holds Supabase Storage client configuration.
type SupabaseConfig struct {
	URL        string
	ServiceKey string
	Bucket     string
	HTTPClient *http.Client
}

// SupabaseStorage removes objects through the Supabase Storage REST API using
// the service role key.
type SupabaseStorage struct {
	storageURL string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

// APIError is an error reply from the Storage API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase storage: status %d: %s", e.StatusCode, e.Message)
}

func NewSupabaseStorage(cfg SupabaseConfig) (*SupabaseStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("service key is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &SupabaseStorage{
		storageURL: strings.TrimSuffix(cfg.URL, "/") + "/storage/v1",
		serviceKey: cfg.ServiceKey,
		bucket:     cfg.Bucket,
		httpClient: httpClient,
	}, nil
}

// Remove deletes keys from the bucket with one DELETE /object/{bucket} call.
func (s *SupabaseStorage) Remove(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, ErrNoKeys
	}

	body, err := json.Marshal(map[string]any{"prefixes": keys})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	urlStr := fmt.Sprintf("%s/object/%s", s.storageURL, url.PathEscape(s.bucket))
	respBody, statusCode, err := s.do(ctx, http.MethodDelete, urlStr, body)
	if err != nil {
		return 0, err
	}
	if statusCode >= 400 {
		return 0, parseError(respBody, statusCode)
	}

	var removed []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(respBody, &removed); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	return len(removed), nil
}

func (s *SupabaseStorage) do(ctx context.Context, method, urlStr string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

func parseError(body []byte, statusCode int) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}
