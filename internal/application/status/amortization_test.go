package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyInstallmentAnnuity(t *testing.T) {
	// 1000 at 12% annual over 12 months is the textbook annuity case.
	assert.Equal(t, 88.85, MonthlyInstallment(1000, 0.12, 12))
}

func TestMonthlyInstallmentZeroRate(t *testing.T) {
	assert.Equal(t, 100.0, MonthlyInstallment(1200, 0, 12))
}

func TestMonthlyInstallmentShorterPeriodCostsMore(t *testing.T) {
	short := MonthlyInstallment(1200, 0.12, 3)
	long := MonthlyInstallment(1200, 0.12, 6)
	assert.Greater(t, short, long)
}

func TestMonthlyInstallmentDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, MonthlyInstallment(1000, 0.12, 0))
	assert.Equal(t, 0.0, MonthlyInstallment(0, 0.12, 12))
	assert.Equal(t, 0.0, MonthlyInstallment(-50, 0.12, 12))
}
