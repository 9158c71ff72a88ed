package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// cleanModelJSON strips markdown fences and any leading or trailing prose
// the model may wrap around its JSON payload.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}

func parseExtractionJSON(raw string) (*ExtractionResult, error) {
	var res ExtractionResult
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &res); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}
	if res.Amount <= 0 {
		return nil, fmt.Errorf("extraction response has no positive amount")
	}
	return &res, nil
}

func parseVerdictJSON(raw string) (*AnomalyVerdict, error) {
	var v AnomalyVerdict
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &v); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}
	if v.RiskScore < 0 {
		v.RiskScore = 0
	}
	if v.RiskScore > 1 {
		v.RiskScore = 1
	}
	return &v, nil
}

// sanitizeUTF8 drops invalid byte sequences so the payload survives the
// jsonb column round trip.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r != utf8.RuneError {
			b.WriteRune(r)
		}
	}
	return b.String()
}
