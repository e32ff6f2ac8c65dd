package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/arenahq/arena/backend/internal/config"
	"github.com/arenahq/arena/backend/internal/models"
)

// RuleTableVersion identifies the active heuristic rule set. Bump it whenever
// a rule is added, removed or retuned.
const RuleTableVersion = "v2"

// PerformanceRule is one named heuristic over a stats snapshot. Rules live in
// an explicit table so tuning them never touches the evaluation control flow.
type PerformanceRule struct {
	ID          string
	Description string
	Severity    models.Severity
	Check       func(models.ClaimedStats) bool
}

var performanceRules = []PerformanceRule{
	{
		ID:          "kills_per_minute",
		Description: "kill rate above 5 per minute",
		Severity:    models.SeverityHigh,
		Check: func(s models.ClaimedStats) bool {
			return s.MatchMinutes > 0 && float64(s.Kills)/s.MatchMinutes > 5
		},
	},
	{
		ID:          "accuracy",
		Description: "accuracy above 95 percent",
		Severity:    models.SeverityMedium,
		Check: func(s models.ClaimedStats) bool {
			return s.Accuracy > 95
		},
	},
	{
		ID:          "headshot_ratio",
		Description: "headshot ratio above 0.8",
		Severity:    models.SeverityHigh,
		Check: func(s models.ClaimedStats) bool {
			return s.Kills > 0 && float64(s.Headshots)/float64(s.Kills) > 0.8
		},
	},
}

// TriggeredRule is one rule that fired during analysis.
type TriggeredRule struct {
	RuleID      string          `json:"rule_id"`
	Description string          `json:"description"`
	Severity    models.Severity `json:"severity"`
}

// AnalysisResult is the explainable outcome of one snapshot evaluation.
type AnalysisResult struct {
	IsSuspicious bool            `json:"is_suspicious"`
	Flags        []TriggeredRule `json:"flags"`
	RiskLevel    models.Severity `json:"risk_level"`
}

// AnomalyService evaluates submitted match statistics against the heuristic
// rule table and escalates accounts that trip multiple high-severity rules.
type AnomalyService struct {
	db     *gorm.DB
	cfg    config.SecurityConfig
	events *EventService
	flags  *FlagService
}

func NewAnomalyService(db *gorm.DB, cfg config.SecurityConfig, events *EventService, flags *FlagService) *AnomalyService {
	return &AnomalyService{db: db, cfg: cfg, events: events, flags: flags}
}

// Analyze runs every rule against the snapshot. All triggered rules are
// persisted as one bundled suspicious_activity event; crossing the
// high-severity threshold additionally flags the account.
func (s *AnomalyService) Analyze(userID uint, matchUUID string, stats models.ClaimedStats) (*AnalysisResult, error) {
	result := &AnalysisResult{}
	var severities []models.Severity
	highCount := 0

	for _, rule := range performanceRules {
		if !rule.Check(stats) {
			continue
		}
		result.Flags = append(result.Flags, TriggeredRule{
			RuleID:      rule.ID,
			Description: rule.Description,
			Severity:    rule.Severity,
		})
		severities = append(severities, rule.Severity)
		if rule.Severity == models.SeverityHigh {
			highCount++
		}
	}

	result.RiskLevel = models.RiskLevel(severities)
	result.IsSuspicious = len(result.Flags) > 0
	if !result.IsSuspicious {
		return result, nil
	}

	ruleIDs := make([]string, len(result.Flags))
	for i, f := range result.Flags {
		ruleIDs[i] = f.RuleID
	}
	s.events.TryLog(userID, models.EventSuspiciousActivity, result.RiskLevel,
		fmt.Sprintf("performance rules triggered (%s): %s", RuleTableVersion, strings.Join(ruleIDs, ", ")),
		models.EventMetadata{
			MatchUUID: matchUUID,
			Flags:     ruleIDs,
			Metrics:   statsMetrics(stats),
		})

	if highCount >= s.cfg.HighFlagEscalationThreshold {
		_, err := s.flags.Flag(userID, models.FlagReasonSuspiciousPerformance, models.SeverityHigh,
			fmt.Sprintf("%d high-severity performance rules triggered in match %s", highCount, matchUUID),
			models.FlagEvidence{PerformanceMetrics: statsMetrics(stats)}, nil)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func statsMetrics(s models.ClaimedStats) map[string]float64 {
	return map[string]float64{
		"kills":          float64(s.Kills),
		"deaths":         float64(s.Deaths),
		"assists":        float64(s.Assists),
		"accuracy":       s.Accuracy,
		"headshots":      float64(s.Headshots),
		"final_position": float64(s.FinalPosition),
		"match_minutes":  s.MatchMinutes,
	}
}
