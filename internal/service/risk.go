package service

import "github.com/benx421/receiptsync/internal/models"

// DefaultRiskThreshold is the transaction total above which a missing
// attachment is classified HIGH risk, unless overridden per company.
const DefaultRiskThreshold = 82.50

// DefaultPenaltyRate estimates potential exposure as a fraction of the
// transaction total. This is a heuristic business signal, not a regulatory
// calculation.
const DefaultPenaltyRate = 0.25

// CalculateRisk computes the risk classification for a transaction against
// a threshold. Pure and deterministic: riskLevel is HIGH iff total >=
// threshold, and the potential penalty applies only above the threshold.
func CalculateRisk(tx models.Transaction, threshold, penaltyRate float64) models.RiskAssessment {
	exceeds := tx.Total >= threshold

	level := models.RiskLevelLow
	penalty := 0.0
	if exceeds {
		level = models.RiskLevelHigh
		penalty = tx.Total * penaltyRate
	}

	return models.RiskAssessment{
		Total:            tx.Total,
		Tax:              tx.Tax,
		SubTotal:         tx.SubTotal,
		Currency:         tx.Currency,
		ExceedsThreshold: exceeds,
		RiskLevel:        level,
		PotentialPenalty: penalty,
	}
}
