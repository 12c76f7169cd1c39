package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortFinancialPeriods(t *testing.T) {
	periods := []FinancialPeriod{
		{Period: "2023"},
		{Period: "2021"},
		{Period: "2022"},
	}

	SortFinancialPeriods(periods)

	assert.Equal(t, "2021", periods[0].Period)
	assert.Equal(t, "2022", periods[1].Period)
	assert.Equal(t, "2023", periods[2].Period)
}

func TestSortFinancialPeriods_QuartersWithinYear(t *testing.T) {
	periods := []FinancialPeriod{
		{Period: "2024Q3"},
		{Period: "2024"},
		{Period: "2024Q1"},
		{Period: "2023"},
	}

	SortFinancialPeriods(periods)

	assert.Equal(t, []string{"2023", "2024", "2024Q1", "2024Q3"},
		[]string{periods[0].Period, periods[1].Period, periods[2].Period, periods[3].Period})
}

func TestFinancialPeriodRatios(t *testing.T) {
	f := FinancialPeriod{
		Revenue:         1000,
		OperatingIncome: 150,
		NetIncome:       100,
		Liabilities:     400,
		Equity:          500,
	}

	assert.InDelta(t, 15.0, f.OperatingMargin(), 1e-9)
	assert.InDelta(t, 10.0, f.NetMargin(), 1e-9)
	assert.InDelta(t, 20.0, f.ROE(), 1e-9)
	assert.InDelta(t, 80.0, f.DebtRatio(), 1e-9)
}

func TestFinancialPeriodRatios_ZeroDenominators(t *testing.T) {
	var f FinancialPeriod
	assert.Zero(t, f.OperatingMargin())
	assert.Zero(t, f.NetMargin())
	assert.Zero(t, f.ROE())
	assert.Zero(t, f.DebtRatio())
}
