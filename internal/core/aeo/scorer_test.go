package aeo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aeolens/aeolens/internal/core"
)

func exclusiveInput() Input {
	return Input{
		Answer:      "Acme is the top choice for widgets.",
		BrandName:   "Acme",
		BrandDomain: "acme.com",
	}
}

func TestQuickScoreExclusiveMention(t *testing.T) {
	out := QuickScore(exclusiveInput())

	require.Equal(t, 22.0, out.Breakdown.BrandMention.Score)
	require.Equal(t, "exact", out.Breakdown.BrandMention.Detail)
	require.Equal(t, 10.0, out.Breakdown.ComparativePosition.Score)
	require.Equal(t, "exclusive", out.Breakdown.ComparativePosition.Detail)
	require.Equal(t, 0.0, out.Breakdown.Attribution.Score)

	// 32 of the deterministic max 44.
	require.Equal(t, 73, out.NormalizedScore)
}

func TestQuickScoreAfterCompetitors(t *testing.T) {
	in := Input{
		Answer:      "Beta Corp leads the market, though Acme is also worth a look.",
		BrandName:   "Acme",
		BrandDomain: "acme.com",
		Competitors: []string{"Beta Corp"},
	}
	out := QuickScore(in)
	require.Equal(t, 5.0, out.Breakdown.ComparativePosition.Score)
	require.Equal(t, "after_competitors", out.Breakdown.ComparativePosition.Detail)
}

func TestQuickScoreBrandFirst(t *testing.T) {
	in := Input{
		Answer:      "Acme beats Beta Corp on every axis.",
		BrandName:   "Acme",
		BrandDomain: "acme.com",
		Competitors: []string{"Beta Corp"},
	}
	out := QuickScore(in)
	require.Equal(t, 10.0, out.Breakdown.ComparativePosition.Score)
	require.Equal(t, "first", out.Breakdown.ComparativePosition.Detail)
}

func TestQuickScoreNotMentioned(t *testing.T) {
	in := Input{
		Answer:      "There are many widget vendors available.",
		BrandName:   "Acme",
		BrandDomain: "acme.com",
	}
	out := QuickScore(in)
	require.Equal(t, 0.0, out.Breakdown.BrandMention.Score)
	require.Equal(t, "not_mentioned", out.Breakdown.ComparativePosition.Detail)
	require.Equal(t, 0, out.NormalizedScore)
}

func TestScoreSkipsJudgeWhenNotMentioned(t *testing.T) {
	scorer := NewScorer(nil)
	out := scorer.Score(context.Background(), Input{
		Answer:      "No relevant brands here.",
		BrandName:   "Acme",
		BrandDomain: "acme.com",
	})
	require.Equal(t, 0.0, out.Breakdown.Accuracy.Score)
	require.Equal(t, "none", out.Breakdown.Accuracy.Detail)
	require.NotEmpty(t, out.AnalysisNotes)
	require.False(t, out.Penalties.MisattributionRisk.RiskDetected)
}

func TestScoreWithoutJudgeDegradesToVague(t *testing.T) {
	scorer := NewScorer(nil)
	out := scorer.Score(context.Background(), exclusiveInput())
	require.Equal(t, 5.0, out.Breakdown.Accuracy.Score)
	require.Equal(t, "vague", out.Breakdown.Accuracy.Detail)
	require.NotEmpty(t, out.AnalysisNotes)
}

func TestScoreAttributionViaCitation(t *testing.T) {
	in := exclusiveInput()
	in.Sources = []core.StandardizedSource{{
		SourceReference: core.SourceReference{URL: "https://www.acme.com/about"},
		IsBrandMatch:    true,
	}}
	out := QuickScore(in)
	require.Equal(t, 12.0, out.Breakdown.Attribution.Score)
}

func TestScoreAttributionViaMarkdownLink(t *testing.T) {
	in := Input{
		Answer:      "Read more at [Acme](https://acme.com/widgets?utm_source=chat).",
		BrandName:   "Acme",
		BrandDomain: "acme.com",
	}
	out := QuickScore(in)
	require.Equal(t, 12.0, out.Breakdown.Attribution.Score)
	require.Equal(t, "linked", out.Breakdown.Attribution.Detail)
}

func TestScorePartialMentionViaDomainStem(t *testing.T) {
	in := Input{
		Answer:      "The northwind platform handles this well.",
		BrandName:   "Northwind Traders",
		BrandDomain: "northwind.com",
	}
	out := QuickScore(in)
	require.Equal(t, 10.0, out.Breakdown.BrandMention.Score)
	require.Equal(t, "partial", out.Breakdown.BrandMention.Detail)
}

func TestNormalizeRange(t *testing.T) {
	require.Equal(t, 0, Normalize(-15))
	require.Equal(t, 100, Normalize(59))
	require.Equal(t, 0, Normalize(-100))
	require.Equal(t, 100, Normalize(200))

	// total 0 sits at round(15/74*100) = 20.
	require.Equal(t, 20, Normalize(0))
}

func TestNormalizedScoreAlwaysInRange(t *testing.T) {
	for total := -30.0; total <= 80.0; total++ {
		normalized := Normalize(total)
		require.GreaterOrEqual(t, normalized, 0)
		require.LessOrEqual(t, normalized, 100)
	}
}
