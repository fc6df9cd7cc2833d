/*
Package payroll converts classified hours into net pay.

PURPOSE:
  Prices an attendance.Breakdown at an hourly rate, applies statutory
  deductions (social security, progressive income tax) and discretionary
  deductions (salary advances, other), and produces an auditable result.

KEY CONCEPTS:
  - Rates: regular 1.0x, overtime 1.5x, holiday 2.0x of the hourly rate
  - Social security: a flat percentage of gross, capped per pay cycle
  - Progressive tax: gross is annualized, reduced by annualized social
    security and a fixed annual exemption, then run through a marginal
    bracket table; the annual tax divides back to a monthly deduction
  - Net pay: gross minus total deductions, clamped at zero - excess
    deduction is absorbed, never carried forward

DESIGN PRINCIPLES:
  1. Calculation always succeeds for well-typed numeric input; data-quality
     concerns are a separate advisory check (ValidateInput)
  2. Pure function of its inputs: no clock, no I/O, no hidden state, so
     repeated calls are bit-identical and safe to run concurrently
  3. All statutory constants travel in a Config so jurisdictions can vary
     and tests can pin alternate tables

SEE ALSO:
  - attendance/classify.go: Produces the Breakdown priced here
  - batch.go: Concurrent multi-employee driver with partial failures
  - factory/config.go: Loads alternate Configs from JSON
*/
package payroll

import (
	"fmt"

	"github.com/warp/payday-engine/attendance"
	"github.com/warp/payday-engine/engine"
)

// =============================================================================
// CONFIGURATION - Statutory constants, injected not hard-coded
// =============================================================================

// Bracket is one marginal tax bracket. Income within [Min, Max) is taxed at
// Rate; Max <= 0 means unbounded (top bracket).
type Bracket struct {
	Min  engine.Money
	Max  engine.Money
	Rate float64
}

// Config carries every statutory constant the calculator uses.
type Config struct {
	OvertimeMultiplier float64
	HolidayMultiplier  float64

	// Social security: SocialSecurityRate of gross per cycle, capped at
	// SocialSecurityCap (local currency units).
	SocialSecurityRate float64
	SocialSecurityCap  engine.Money

	// Tax: annual exemption subtracted before the bracket table runs.
	AnnualExemption engine.Money
	Brackets        []Bracket

	// Advisory sanity bounds for ValidateInput.
	MaxTotalHours float64
	MaxHourlyRate engine.Money
}

// DefaultConfig returns the statutory table this engine ships with:
// 5% social security capped at 750/cycle, 60,000 annual exemption, and
// eight marginal brackets from 0% to 35%.
func DefaultConfig() Config {
	return Config{
		OvertimeMultiplier: 1.5,
		HolidayMultiplier:  2.0,
		SocialSecurityRate: 0.05,
		SocialSecurityCap:  engine.MoneyFromInt(750),
		AnnualExemption:    engine.MoneyFromInt(60_000),
		Brackets: []Bracket{
			{Min: engine.MoneyFromInt(0), Max: engine.MoneyFromInt(150_000), Rate: 0},
			{Min: engine.MoneyFromInt(150_000), Max: engine.MoneyFromInt(300_000), Rate: 0.05},
			{Min: engine.MoneyFromInt(300_000), Max: engine.MoneyFromInt(500_000), Rate: 0.10},
			{Min: engine.MoneyFromInt(500_000), Max: engine.MoneyFromInt(750_000), Rate: 0.15},
			{Min: engine.MoneyFromInt(750_000), Max: engine.MoneyFromInt(1_000_000), Rate: 0.20},
			{Min: engine.MoneyFromInt(1_000_000), Max: engine.MoneyFromInt(2_000_000), Rate: 0.25},
			{Min: engine.MoneyFromInt(2_000_000), Max: engine.MoneyFromInt(5_000_000), Rate: 0.30},
			{Min: engine.MoneyFromInt(5_000_000), Rate: 0.35},
		},
		MaxTotalHours: 400,
		MaxHourlyRate: engine.MoneyFromInt(10_000),
	}
}

// =============================================================================
// RATES - Derived from a single hourly rate
// =============================================================================

// Rates holds the per-bucket hourly rates.
type Rates struct {
	Regular  engine.Money
	Overtime engine.Money
	Holiday  engine.Money
}

// RatesFor derives the bucket rates from the base hourly rate.
func (c Config) RatesFor(hourlyRate engine.Money) Rates {
	return Rates{
		Regular:  hourlyRate,
		Overtime: hourlyRate.MulFloat(c.OvertimeMultiplier),
		Holiday:  hourlyRate.MulFloat(c.HolidayMultiplier),
	}
}

// =============================================================================
// RESULT - One employee-period calculation, fully itemized
// =============================================================================

// Result is an immutable calculation output. A fresh Result is produced on
// every call; nothing is patched in place, which keeps every run idempotent
// and repeatable for audit.
//
// Invariants:
//   Gross = RegularPay + OvertimePay + HolidayPay
//   Net   = max(0, Gross - TotalDeductions)
type Result struct {
	Hours attendance.Breakdown
	Rates Rates

	RegularPay  engine.Money
	OvertimePay engine.Money
	HolidayPay  engine.Money
	Gross       engine.Money

	SocialSecurity  engine.Money
	Tax             engine.Money
	SalaryAdvances  engine.Money
	OtherDeductions engine.Money
	TotalDeductions engine.Money

	Net engine.Money
}

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate prices the hour buckets and applies all deductions.
// It never fails for well-typed numeric input; use ValidateInput for the
// advisory data-quality check.
func (c *Calculator) Calculate(hours attendance.Breakdown, hourlyRate, advances, other engine.Money) Result {
	rates := c.cfg.RatesFor(hourlyRate)

	regularPay := rates.Regular.MulFloat(hours.Regular)
	overtimePay := rates.Overtime.MulFloat(hours.Overtime)
	holidayPay := rates.Holiday.MulFloat(hours.Holiday)
	gross := regularPay.Add(overtimePay).Add(holidayPay)

	socialSecurity := c.socialSecurity(gross)
	tax := c.monthlyTax(gross, socialSecurity)

	totalDeductions := socialSecurity.Add(tax).Add(advances).Add(other)
	net := gross.Sub(totalDeductions).ClampZero()

	return Result{
		Hours:           hours,
		Rates:           rates,
		RegularPay:      regularPay.Round2(),
		OvertimePay:     overtimePay.Round2(),
		HolidayPay:      holidayPay.Round2(),
		Gross:           gross.Round2(),
		SocialSecurity:  socialSecurity.Round2(),
		Tax:             tax.Round2(),
		SalaryAdvances:  advances.Round2(),
		OtherDeductions: other.Round2(),
		TotalDeductions: totalDeductions.Round2(),
		Net:             net.Round2(),
	}
}

// socialSecurity computes min(gross * rate, cap).
func (c *Calculator) socialSecurity(gross engine.Money) engine.Money {
	return gross.MulFloat(c.cfg.SocialSecurityRate).Min(c.cfg.SocialSecurityCap)
}

// monthlyTax annualizes gross, subtracts annualized social security and the
// annual exemption, runs the marginal brackets, and divides back to a month.
func (c *Calculator) monthlyTax(gross, socialSecurity engine.Money) engine.Money {
	annualIncome := gross.MulFloat(12)
	annualSS := socialSecurity.MulFloat(12)
	taxable := annualIncome.Sub(annualSS).Sub(c.cfg.AnnualExemption).ClampZero()

	annualTax := c.annualTax(taxable)
	return annualTax.DivInt(12)
}

// annualTax applies the bracket table lowest-to-highest; each bracket taxes
// only the slice of income within its [Min, Max) range.
func (c *Calculator) annualTax(taxable engine.Money) engine.Money {
	tax := engine.MoneyZero()
	for _, b := range c.cfg.Brackets {
		if !taxable.GreaterThan(b.Min) {
			break
		}
		upper := taxable
		if b.Max.IsPositive() {
			upper = taxable.Min(b.Max)
		}
		slice := upper.Sub(b.Min)
		tax = tax.Add(slice.MulFloat(b.Rate))
	}
	return tax
}

// =============================================================================
// ADVISORY VALIDATION
// =============================================================================

// ValidateInput returns human-readable problems with the inputs. It is an
// advisory check, deliberately decoupled from Calculate: the caller decides
// whether any problem is blocking, so a UI can warn without preventing an
// otherwise-valid calculation.
func (c *Calculator) ValidateInput(hours attendance.Breakdown, hourlyRate, advances, other engine.Money) []string {
	var problems []string

	if hours.Regular < 0 {
		problems = append(problems, fmt.Sprintf("regular hours cannot be negative (got %.2f)", hours.Regular))
	}
	if hours.Overtime < 0 {
		problems = append(problems, fmt.Sprintf("overtime hours cannot be negative (got %.2f)", hours.Overtime))
	}
	if hours.Holiday < 0 {
		problems = append(problems, fmt.Sprintf("holiday hours cannot be negative (got %.2f)", hours.Holiday))
	}
	if !hourlyRate.IsPositive() {
		problems = append(problems, fmt.Sprintf("hourly rate must be positive (got %s)", hourlyRate))
	}
	if advances.IsNegative() {
		problems = append(problems, fmt.Sprintf("salary advances cannot be negative (got %s)", advances))
	}
	if other.IsNegative() {
		problems = append(problems, fmt.Sprintf("other deductions cannot be negative (got %s)", other))
	}

	total := hours.Regular + hours.Overtime + hours.Holiday
	if total > c.cfg.MaxTotalHours {
		problems = append(problems, fmt.Sprintf("total hours %.2f exceed the sanity bound of %.0f per period", total, c.cfg.MaxTotalHours))
	}
	if hourlyRate.GreaterThan(c.cfg.MaxHourlyRate) {
		problems = append(problems, fmt.Sprintf("hourly rate %s exceeds the sanity bound of %s", hourlyRate, c.cfg.MaxHourlyRate))
	}

	return problems
}
