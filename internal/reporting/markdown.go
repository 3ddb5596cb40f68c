package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Pricing Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.Run.RunID))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Dataset Hash | %s |\n", r.Run.DatasetHash))
	sb.WriteString(fmt.Sprintf("| Campaign Discount | %s |\n", FormatPrice(r.Run.CampaignDiscount)))
	sb.WriteString(fmt.Sprintf("| Total Products | %d |\n", r.Run.ProductCount))
	sb.WriteString(fmt.Sprintf("| Personalized Prices | %d |\n", r.Run.PersonalizedCount))
	sb.WriteString(fmt.Sprintf("| Price Fallbacks | %d |\n", r.Run.FallbackCount))
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", r.Run.StartedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Completed | %s |\n", r.Run.CompletedAt.Format(time.RFC3339)))
	sb.WriteString("\n")

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Rows | %d |\n", r.DataSummary.TotalRows))
	sb.WriteString(fmt.Sprintf("| Products | %d |\n", r.DataSummary.Products))
	sb.WriteString(fmt.Sprintf("| Customers | %d |\n", r.DataSummary.Customers))
	sb.WriteString(fmt.Sprintf("| Product/Customer Pairs | %d |\n", r.DataSummary.Pairs))
	sb.WriteString(fmt.Sprintf("| Date Range Start | %s |\n", formatDate(r.DataSummary.DateRangeStart)))
	sb.WriteString(fmt.Sprintf("| Date Range End | %s |\n", formatDate(r.DataSummary.DateRangeEnd)))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Affected products use default elasticity, demand or price.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Optimal Prices
	sb.WriteString("## Optimal Prices\n\n")
	if len(r.Products) > 0 {
		sb.WriteString("| Product | Base | Total Cost | Elasticity | Forecast | Competitor | Optimal | Forecast Fallback | Price Fallback |\n")
		sb.WriteString("|---------|------|------------|------------|----------|------------|---------|-------------------|----------------|\n")
		for _, p := range r.Products {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %.2f | %s | %s | %s | %s |\n",
				p.ProductID,
				formatMoney(p.BasePrice),
				formatMoney(p.TotalCost),
				p.Elasticity,
				p.DemandForecast,
				formatMoney(p.CompetitorPrice),
				formatMoney(p.OptimalPrice),
				dashIfEmpty(p.ForecastFallback),
				dashIfEmpty(p.PriceFallback)))
		}
	} else {
		sb.WriteString("No optimal prices available.\n")
	}
	sb.WriteString("\n")

	// Fallbacks
	sb.WriteString("## Fallbacks\n\n")
	if len(r.PriceFallbacks) > 0 || len(r.ForecastFallbacks) > 0 {
		sb.WriteString("| Stage | Reason | Products |\n")
		sb.WriteString("|-------|--------|----------|\n")
		for _, c := range r.ForecastFallbacks {
			sb.WriteString(fmt.Sprintf("| forecast | %s | %d |\n", c.Key, c.Count))
		}
		for _, c := range r.PriceFallbacks {
			sb.WriteString(fmt.Sprintf("| price | %s | %d |\n", c.Key, c.Count))
		}
	} else {
		sb.WriteString("No fallbacks.\n")
	}
	sb.WriteString("\n")

	// Personalization
	sb.WriteString("## Personalization Rules\n\n")
	if len(r.RuleCounts) > 0 {
		sb.WriteString("| Rule | Prices |\n")
		sb.WriteString("|------|--------|\n")
		for _, c := range r.RuleCounts {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", c.Key, c.Count))
		}
	} else {
		sb.WriteString("No personalized prices available.\n")
	}

	return sb.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
