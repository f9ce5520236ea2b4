package detector

import (
	"math"
	"testing"

	"github.com/piyushhhxyz/insider-detect/internal/models"
)

func report(wallet string, composite float64) models.Report {
	return models.Report{Wallet: wallet, Composite: composite}
}

func TestEvaluateCohorts(t *testing.T) {
	tiers := DefaultConfig().Tiers
	insiders := []models.Report{
		report("0xa", 0.95),
		report("0xb", 0.80),
		report("0xc", 0.40), // below MEDIUM: a miss
	}
	controls := []models.Report{
		report("0xd", 0.10),
		report("0xe", 0.75), // at or above HIGH: a false positive
		report("0xf", 0.20),
	}

	summary := EvaluateCohorts(insiders, controls, tiers)

	if summary.Insiders.Count != 3 || summary.Controls.Count != 3 {
		t.Fatalf("Cohort counts = %d/%d, want 3/3", summary.Insiders.Count, summary.Controls.Count)
	}
	wantInsiderMean := (0.95 + 0.80 + 0.40) / 3
	if math.Abs(summary.Insiders.MeanComposite-wantInsiderMean) > 1e-9 {
		t.Errorf("Insider mean = %v, want %v", summary.Insiders.MeanComposite, wantInsiderMean)
	}
	wantControlMean := (0.10 + 0.75 + 0.20) / 3
	wantSeparation := wantInsiderMean - wantControlMean
	if math.Abs(summary.Separation-wantSeparation) > 1e-9 {
		t.Errorf("Separation = %v, want %v", summary.Separation, wantSeparation)
	}

	if summary.Insiders.MinComposite != 0.40 || summary.Insiders.MaxComposite != 0.95 {
		t.Errorf("Insider min/max = %v/%v, want 0.40/0.95",
			summary.Insiders.MinComposite, summary.Insiders.MaxComposite)
	}

	if len(summary.MissedInsiders) != 1 || summary.MissedInsiders[0].Wallet != "0xc" {
		t.Errorf("MissedInsiders = %v, want just 0xc", summary.MissedInsiders)
	}
	if len(summary.FalsePositives) != 1 || summary.FalsePositives[0].Wallet != "0xe" {
		t.Errorf("FalsePositives = %v, want just 0xe", summary.FalsePositives)
	}
}

func TestEvaluateCohortsEmpty(t *testing.T) {
	summary := EvaluateCohorts(nil, nil, DefaultConfig().Tiers)
	if summary.Insiders.Count != 0 || summary.Controls.Count != 0 {
		t.Error("Expected zero counts for empty cohorts")
	}
	if summary.Separation != 0 {
		t.Errorf("Separation = %v, want 0", summary.Separation)
	}
	if len(summary.MissedInsiders) != 0 || len(summary.FalsePositives) != 0 {
		t.Error("Expected no outliers for empty cohorts")
	}
}
