package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		name  string
		flags []Severity
		want  Severity
	}{
		{"no flags", nil, SeverityLow},
		{"one medium", []Severity{SeverityMedium}, SeverityMedium},
		{"one high", []Severity{SeverityHigh}, SeverityHigh},
		{"two highs", []Severity{SeverityHigh, SeverityHigh}, SeverityCritical},
		{"three mediums", []Severity{SeverityMedium, SeverityMedium, SeverityMedium}, SeverityHigh},
		{"two mediums", []Severity{SeverityMedium, SeverityMedium}, SeverityMedium},
		{"one high three mediums", []Severity{SeverityHigh, SeverityMedium, SeverityMedium, SeverityMedium}, SeverityHigh},
		{"low only", []Severity{SeverityLow, SeverityLow}, SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RiskLevel(tt.flags))
		})
	}
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityLow, SeverityHigh))
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityHigh, SeverityMedium))
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityCritical, SeverityCritical))
}

func TestSeverityValid(t *testing.T) {
	assert.True(t, SeverityLow.Valid())
	assert.True(t, SeverityCritical.Valid())
	assert.False(t, Severity("extreme").Valid())
}
