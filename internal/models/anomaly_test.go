package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityForRisk(t *testing.T) {
	cases := []struct {
		risk float64
		want AnomalySeverity
	}{
		{0.0, AnomalySeverityLow},
		{0.2, AnomalySeverityLow},
		{0.4, AnomalySeverityLow},
		{0.41, AnomalySeverityMedium},
		{0.55, AnomalySeverityMedium},
		{0.7, AnomalySeverityMedium},
		{0.71, AnomalySeverityHigh},
		{0.75, AnomalySeverityHigh},
		{1.0, AnomalySeverityHigh},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SeverityForRisk(tc.risk), "risk=%v", tc.risk)
	}
}
