package status

import "math"

// Annual interest rates per product line, expressed as fractions.
const (
	ssbAnnualRate = 0.12
	// blacklistReportPrice is charged when a declined applicant requests
	// their credit report.
	blacklistReportPrice = 5.0
)

// MonthlyInstallment computes the fixed monthly annuity payment for a
// principal repaid over months at the given annual rate.
func MonthlyInstallment(principal, annualRate float64, months int) float64 {
	if months <= 0 || principal <= 0 {
		return 0
	}
	r := annualRate / 12
	if r == 0 {
		return round2(principal / float64(months))
	}
	factor := math.Pow(1+r, float64(months))
	return round2(principal * r * factor / (factor - 1))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
