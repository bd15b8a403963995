package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/utafrali/productreview/internal/domain"
	"github.com/utafrali/productreview/internal/llm"
)

// ErrMissingTakeaway is returned when the model output has no usable takeaway.
var ErrMissingTakeaway = errors.New("summary response missing takeaway")

type aiSummary struct {
	Takeaway  json.RawMessage `json:"takeaway"`
	Pros      json.RawMessage `json:"pros"`
	Cons      json.RawMessage `json:"cons"`
	TopTopics json.RawMessage `json:"topTopics"`
}

// ParseResponse extracts the JSON object from raw model output and returns
// the clamped summary it describes.
func ParseResponse(raw string) (domain.SummaryContent, error) {
	obj, err := llm.ExtractJSONObject(raw)
	if err != nil {
		return domain.SummaryContent{}, err
	}

	var payload aiSummary
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return domain.SummaryContent{}, fmt.Errorf("decode summary response: %w", err)
	}

	takeaway, ok := scalarText(payload.Takeaway)
	if !ok {
		return domain.SummaryContent{}, ErrMissingTakeaway
	}

	return Clamp(domain.SummaryContent{
		Takeaway:  takeaway,
		Pros:      stringList(payload.Pros),
		Cons:      stringList(payload.Cons),
		TopTopics: stringList(payload.TopTopics),
	})
}

// Clamp bounds a generated summary: the takeaway and every list item are
// trimmed and cut to 220 characters, lists are de-duplicated and capped. A
// takeaway that ends up blank is an error.
func Clamp(in domain.SummaryContent) (domain.SummaryContent, error) {
	out := domain.SummaryContent{
		Takeaway:  clampText(in.Takeaway),
		Pros:      ClampList(in.Pros, domain.MaxSummaryPros),
		Cons:      ClampList(in.Cons, domain.MaxSummaryCons),
		TopTopics: ClampList(in.TopTopics, domain.MaxSummaryTopics),
	}
	if out.Takeaway == "" {
		return domain.SummaryContent{}, ErrMissingTakeaway
	}
	return out, nil
}

// scalarText renders a JSON string, number or boolean as text. Absent, null
// and container values report false.
func scalarText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64, bool:
		return strings.TrimSpace(string(raw)), true
	default:
		return "", false
	}
}

// stringList reads a JSON array of scalars, trimming each item and skipping
// blanks. Anything that is not an array yields an empty list.
func stringList(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := scalarText(item)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
