package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/jgoulah/billchart/pkg/models"
)

// StatusError is returned when the bill-data API answers with a non-200 status
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Client fetches records from a bill-data API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API rooted at baseURL (e.g. "http://host:3000/api")
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// RecordsURL returns the endpoint serving a commodity's records
func (c *Client) RecordsURL(kind models.Commodity) string {
	return fmt.Sprintf("%s/%s-bill-data", c.baseURL, kind)
}

// FetchRecords retrieves every record of a commodity. Non-string JSON values
// are kept as their literal text so they coerce the same way CSV cells do.
func (c *Client) FetchRecords(ctx context.Context, kind models.Commodity) ([]models.RawRecord, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("fetching records: unknown commodity %v", kind)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.RecordsURL(kind), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	return DecodeRecords(body)
}

// DecodeRecords parses a JSON array of flat record objects
func DecodeRecords(data []byte) ([]models.RawRecord, error) {
	var raw []map[string]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	records := make([]models.RawRecord, 0, len(raw))
	for _, obj := range raw {
		rec := make(models.RawRecord, len(obj))
		for k, v := range obj {
			s, err := fieldString(v)
			if err != nil {
				return nil, fmt.Errorf("decoding field %q: %w", k, err)
			}
			rec[k] = s
		}
		records = append(records, rec)
	}
	return records, nil
}

func fieldString(v jsontext.Value) (string, error) {
	switch v.Kind() {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	case 'n':
		return "", nil
	default:
		return string(v), nil
	}
}
