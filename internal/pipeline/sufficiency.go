package pipeline

import (
	"fmt"
	"math"
	"time"

	"dynamic-pricing/internal/dataset"
	"dynamic-pricing/internal/reporting"
)

// SufficiencyCheck represents one data coverage criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// CheckSufficiency reports how much of the catalog has enough history for
// each estimator. Failures never stop a run; they explain fallbacks.
func CheckSufficiency(ds *dataset.Dataset) *SufficiencyResult {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 5),
		AllPass: true,
		Errors:  []string{},
	}
	ids := ds.ProductIDs()

	// Check 1: forecast needs two distinct dates
	forecastable := 0
	for _, id := range ids {
		if distinctDates(ds, id) >= 2 {
			forecastable++
		}
	}
	result.add(coverageCheck("Forecastable products", ">= 2 distinct dates", forecastable, len(ids)))

	// Check 2: elasticity needs two rows
	elastic := 0
	for _, id := range ids {
		if len(ds.ProductRows(id)) >= 2 {
			elastic++
		}
	}
	result.add(coverageCheck("Elasticity samples", ">= 2 rows", elastic, len(ids)))

	// Check 3: competitor price present
	covered := make(map[string]bool)
	for _, s := range ds.CompetitorSnapshots() {
		if !math.IsNaN(s.FinalPrice) {
			covered[s.ProductID] = true
		}
	}
	result.add(coverageCheck("Competitor price coverage", ">= 1 observation", len(covered), len(ids)))

	// Check 4: duplicate (product, customer, timestamp) rows
	dupCheck, dupErrors := checkDuplicateRows(ds)
	result.add(dupCheck)
	result.Errors = append(result.Errors, dupErrors...)

	// Check 5: base price must be positive for the optimizer
	priceCheck, priceErrors := checkBasePrices(ds)
	result.add(priceCheck)
	result.Errors = append(result.Errors, priceErrors...)

	return result
}

func (r *SufficiencyResult) add(c SufficiencyCheck) {
	r.Checks = append(r.Checks, c)
	if !c.Pass {
		r.AllPass = false
	}
}

func coverageCheck(name, threshold string, ok, total int) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      name,
		Threshold: threshold,
		Actual:    fmt.Sprintf("%d/%d products", ok, total),
		Pass:      ok == total,
	}
}

func distinctDates(ds *dataset.Dataset, productID string) int {
	days := make(map[string]struct{})
	for _, r := range ds.ProductRows(productID) {
		days[r.DateTime.UTC().Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}

func checkDuplicateRows(ds *dataset.Dataset) (SufficiencyCheck, []string) {
	type rowKey struct {
		productID  string
		customerID string
		at         int64
	}
	seen := make(map[rowKey]bool)
	reported := make(map[rowKey]bool)
	var errs []string
	for _, r := range ds.Rows() {
		k := rowKey{r.ProductID, r.CustomerID, r.DateTime.UnixNano()}
		if seen[k] && !reported[k] {
			reported[k] = true
			errs = append(errs, fmt.Sprintf("duplicate row: %s/%s/%s",
				r.ProductID, r.CustomerID, r.DateTime.UTC().Format(time.RFC3339)))
		}
		seen[k] = true
	}
	return SufficiencyCheck{
		Name:      "Duplicate rows",
		Threshold: "0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs
}

func checkBasePrices(ds *dataset.Dataset) (SufficiencyCheck, []string) {
	var errs []string
	for _, id := range ds.ProductIDs() {
		p, _ := ds.Product(id)
		if p.BasePrice <= 0 {
			errs = append(errs, fmt.Sprintf("non-positive base price: %s (%g)", id, p.BasePrice))
		}
	}
	return SufficiencyCheck{
		Name:      "Non-positive base prices",
		Threshold: "0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs
}

// convertToDataQuality converts SufficiencyResult to reporting.DataQualitySection.
func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	checks := make([]reporting.SufficiencyCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataQualitySection{
		SufficiencyChecks: checks,
		IntegrityErrors:   result.Errors,
		AllChecksPassed:   result.AllPass,
	}
}
