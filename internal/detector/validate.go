package detector

import (
	"github.com/piyushhhxyz/insider-detect/internal/models"
)

// CohortStats summarizes composite scores across one labeled wallet cohort.
type CohortStats struct {
	Label         string
	Count         int
	MeanComposite float64
	MinComposite  float64
	MaxComposite  float64
}

// ValidationSummary compares a known-insider cohort against a control cohort
// of ordinary traders. Separation is the difference of cohort means; a
// healthy configuration keeps it well above zero with no cross-over.
type ValidationSummary struct {
	Insiders       CohortStats
	Controls       CohortStats
	Separation     float64
	MissedInsiders []models.Report // insiders scoring below the MEDIUM threshold
	FalsePositives []models.Report // controls scoring at or above the HIGH threshold
}

// EvaluateCohorts computes validation statistics for already-scored reports.
func EvaluateCohorts(insiders, controls []models.Report, tiers Tiers) ValidationSummary {
	summary := ValidationSummary{
		Insiders: cohortStats("insiders", insiders),
		Controls: cohortStats("controls", controls),
	}
	summary.Separation = summary.Insiders.MeanComposite - summary.Controls.MeanComposite

	for _, r := range insiders {
		if r.Composite < tiers.Medium {
			summary.MissedInsiders = append(summary.MissedInsiders, r)
		}
	}
	for _, r := range controls {
		if r.Composite >= tiers.High {
			summary.FalsePositives = append(summary.FalsePositives, r)
		}
	}
	return summary
}

func cohortStats(label string, reports []models.Report) CohortStats {
	stats := CohortStats{Label: label, Count: len(reports)}
	if len(reports) == 0 {
		return stats
	}
	stats.MinComposite = reports[0].Composite
	stats.MaxComposite = reports[0].Composite
	total := 0.0
	for _, r := range reports {
		total += r.Composite
		if r.Composite < stats.MinComposite {
			stats.MinComposite = r.Composite
		}
		if r.Composite > stats.MaxComposite {
			stats.MaxComposite = r.Composite
		}
	}
	stats.MeanComposite = total / float64(len(reports))
	return stats
}
