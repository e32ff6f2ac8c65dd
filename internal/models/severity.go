package models

// Severity is the four-level ordinal attached to events, flags and analyzer rules.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity, with unknown values ranked lowest.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Valid reports whether the severity is one of the four known levels.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RiskLevel derives an overall risk ordinal from a set of per-rule severities:
// critical when two or more highs, high when at least one high or three mediums,
// medium when at least one medium, low otherwise.
func RiskLevel(flags []Severity) Severity {
	high := 0
	medium := 0
	for _, s := range flags {
		switch s {
		case SeverityHigh, SeverityCritical:
			high++
		case SeverityMedium:
			medium++
		}
	}
	switch {
	case high >= 2:
		return SeverityCritical
	case high >= 1 || medium >= 3:
		return SeverityHigh
	case medium >= 1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
