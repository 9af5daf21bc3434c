// Package snapshot defines the JSON envelope written for every fetch and the
// sinks that persist it.
package snapshot

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// StatusOK is the only status written; failed fetches produce no snapshot.
const StatusOK = "ok"

// Envelope is the self-describing record stored for one fetch.
type Envelope struct {
	FetchedAt   string              `json:"fetched_at"`
	Status      string              `json:"status"`
	Endpoint    string              `json:"endpoint"`
	PathParams  map[string]string   `json:"path_params,omitempty"`
	QueryParams map[string]string   `json:"query_params,omitempty"`
	RunID       string              `json:"run_id,omitempty"`
	Cached      bool                `json:"cached,omitempty"` // items replayed from the response cache
	Items       jsoniter.RawMessage `json:"items"`
}

// NewEnvelope returns an ok envelope for endpoint stamped with now in UTC.
func NewEnvelope(endpoint string, now time.Time, items jsoniter.RawMessage) Envelope {
	if len(items) == 0 {
		items = jsoniter.RawMessage("null")
	}
	return Envelope{
		FetchedAt: now.UTC().Format(time.RFC3339),
		Status:    StatusOK,
		Endpoint:  endpoint,
		Items:     items,
	}
}

// ListItems encodes accumulated page content as a JSON array.
func ListItems(items []jsoniter.RawMessage) (jsoniter.RawMessage, error) {
	if items == nil {
		items = []jsoniter.RawMessage{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	return data, nil
}

// Encode renders the envelope as two-space indented JSON.
func Encode(env Envelope) ([]byte, error) {
	compact, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	var out bytes.Buffer
	if err := stdjson.Indent(&out, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent envelope: %w", err)
	}
	return out.Bytes(), nil
}

// Filename returns "<resource>_<qualifier>_<YYYYMMDD>.json" using the UTC
// date of day. An empty qualifier is omitted.
func Filename(resource, qualifier string, day time.Time) string {
	parts := []string{sanitize(resource)}
	if qualifier != "" {
		parts = append(parts, sanitize(qualifier))
	}
	parts = append(parts, day.UTC().Format("20060102"))
	return strings.Join(parts, "_") + ".json"
}

// sanitize keeps identifiers from escaping the output directory.
func sanitize(s string) string {
	return strings.NewReplacer("/", "-", `\`, "-", "..", "-").Replace(s)
}
