package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Envelope is the shape of every admin API response body.
type Envelope struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Page is the pagination envelope returned by list endpoints.
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

type Meta struct {
	Total int `json:"total"`
}

// RowCount is what a grid should show as total rows: meta.total, or the page length when the server sent no meta.
func (p Page[T]) RowCount() int {
	if p.Meta.Total > 0 {
		return p.Meta.Total
	}
	return len(p.Data)
}

// PageQuery builds the Limit/Page/SearchText query every paginated listing takes.
func PageQuery(limit, page int, search string) url.Values {
	return url.Values{
		"Limit":      {strconv.Itoa(limit)},
		"Page":       {strconv.Itoa(page)},
		"SearchText": {search},
	}
}

// decodeData unwraps the envelope and decodes its data into out.
// Bodies without an envelope are decoded as they are.
func decodeData(payload []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Data != nil {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
