package matching

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/andriarta/payrecon/internal/models"
)

// Scoring weights: virtual account 50, exact amount 40, date proximity up to 10.
const (
	vaMatchScore     = 50
	amountMatchScore = 40
	dateMatchScore   = 10
)

type Config struct {
	// Tolerance in hours between the claimed transfer and the bank record.
	// Beyond it the date contributes nothing to the score.
	DateToleranceHours float64

	// Score threshold for auto-matched classification (0-100)
	AutoMatchThreshold int

	// Minimum score to pair records at all; below it no result is produced
	ManualReviewThreshold int
}

var DefaultConfig = Config{
	DateToleranceHours:    24,
	AutoMatchThreshold:    90,
	ManualReviewThreshold: 50,
}

// Candidate is an engine-proposed pairing, not yet persisted.
type Candidate struct {
	WebreportID     uuid.UUID
	BankStatementID uuid.UUID
	Score           int
	Details         models.MatchDetails
	Status          string
}

type RunResult struct {
	Matched             []Candidate
	UnmatchedWebreports []models.Webreport
	UnmatchedStatements []models.BankStatement
}

// Run pairs pending webreports with pending bank statements.
//
// The matcher is greedy and single-pass: webreports are processed in input
// order, each taking the highest-scoring still-unused statement (first seen
// wins ties). A consumed statement is not reconsidered for later webreports,
// so the result is deterministic but not globally optimal. Records left over
// are echoed back as unmatched; an empty Matched set is a valid outcome, the
// engine never fails on business grounds.
func Run(webreports []models.Webreport, statements []models.BankStatement, config Config) RunResult {
	pendingReports := filterPendingWebreports(webreports)
	pendingStatements := filterPendingStatements(statements)

	var matched []Candidate
	usedReports := make(map[uuid.UUID]bool)
	usedStatements := make(map[uuid.UUID]bool)

	for _, report := range pendingReports {
		var best *Candidate

		for i := range pendingStatements {
			statement := &pendingStatements[i]
			if usedStatements[statement.ID] {
				continue
			}

			details := Details(report, *statement, config)
			score := Score(details, config)

			if best == nil || score > best.Score {
				best = &Candidate{
					WebreportID:     report.ID,
					BankStatementID: statement.ID,
					Score:           score,
					Details:         details,
				}
			}
		}

		if best == nil || best.Score < config.ManualReviewThreshold {
			continue
		}

		best.Status = Classify(best.Score, config)
		matched = append(matched, *best)
		usedReports[best.WebreportID] = true
		usedStatements[best.BankStatementID] = true
	}

	result := RunResult{Matched: matched}
	for _, report := range pendingReports {
		if !usedReports[report.ID] {
			result.UnmatchedWebreports = append(result.UnmatchedWebreports, report)
		}
	}
	for _, statement := range pendingStatements {
		if !usedStatements[statement.ID] {
			result.UnmatchedStatements = append(result.UnmatchedStatements, statement)
		}
	}

	return result
}

// Details computes the comparison facts for one report/statement pair.
func Details(report models.Webreport, statement models.BankStatement, config Config) models.MatchDetails {
	proximity := report.TransferDate.Sub(statement.TransactionDate).Hours()
	if proximity < 0 {
		proximity = -proximity
	}

	return models.MatchDetails{
		VAMatch:            NormalizeVA(report.VirtualAccount) == NormalizeVA(statement.VirtualAccount),
		AmountMatch:        report.Amount.Equal(statement.Amount),
		DateProximityHours: proximity,
	}
}

// Score converts match details into a 0-100 score. The date component decays
// linearly from 10 to 0 as proximity approaches the tolerance.
func Score(details models.MatchDetails, config Config) int {
	score := 0.0

	if details.VAMatch {
		score += vaMatchScore
	}
	if details.AmountMatch {
		score += amountMatchScore
	}
	if details.DateProximityHours <= config.DateToleranceHours {
		dateScore := dateMatchScore * (1 - details.DateProximityHours/config.DateToleranceHours)
		score += math.Max(0, dateScore)
	}

	return int(math.Round(score))
}

// Classify decides the review lane for a score that already cleared the
// pairing threshold. Everything below auto is a manual review.
func Classify(score int, config Config) string {
	if score >= config.AutoMatchThreshold {
		return models.MatchAutoMatched
	}
	return models.MatchManualReview
}

// NormalizeVA strips everything but digits so formatting differences
// ("8808-0123" vs "88080123") do not break the comparison.
func NormalizeVA(va string) string {
	var b strings.Builder
	for _, r := range va {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func filterPendingWebreports(reports []models.Webreport) []models.Webreport {
	out := make([]models.Webreport, 0, len(reports))
	for _, r := range reports {
		if r.Status == models.WebreportPending {
			out = append(out, r)
		}
	}
	return out
}

func filterPendingStatements(statements []models.BankStatement) []models.BankStatement {
	out := make([]models.BankStatement, 0, len(statements))
	for _, s := range statements {
		if s.Status == models.StatementPending {
			out = append(out, s)
		}
	}
	return out
}
