package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanModelJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced object", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", "Here is the result: {\"a\":1}", `{"a":1}`},
		{"trailing prose", "{\"a\":1} hope this helps", `{"a":1}`},
		{"array", "some text [1,2,3] more text", `[1,2,3]`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cleanModelJSON(tc.in))
		})
	}
}

func TestParseExtractionJSON(t *testing.T) {
	res, err := parseExtractionJSON("```json\n" + `{
		"merchant": "Fresh Market",
		"category": "Food",
		"amount": 42.10,
		"currency": "USD",
		"transaction_date": "2026-08-20",
		"type": "expense",
		"description": "Groceries"
	}` + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "Fresh Market", res.Merchant)
	assert.Equal(t, 42.10, res.Amount)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, "2026-08-20", res.TransactionDate)
}

func TestParseExtractionJSONRejectsBadInput(t *testing.T) {
	_, err := parseExtractionJSON("I could not read the document, sorry.")
	assert.Error(t, err)

	_, err = parseExtractionJSON(`{"merchant":"X","amount":0}`)
	assert.Error(t, err)

	_, err = parseExtractionJSON(`{"merchant":"X","amount":-5}`)
	assert.Error(t, err)
}

func TestParseVerdictJSONClampsRiskScore(t *testing.T) {
	v, err := parseVerdictJSON(`{"is_anomaly":true,"risk_score":1.7,"reason":"r","recommendation":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.RiskScore)

	v, err = parseVerdictJSON(`{"is_anomaly":false,"risk_score":-0.3}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.RiskScore)
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "hello", sanitizeUTF8("hello"))
	assert.Equal(t, "héllo", sanitizeUTF8("héllo"))

	broken := string([]byte{'a', 0xff, 'b'})
	assert.Equal(t, "ab", sanitizeUTF8(broken))
}
