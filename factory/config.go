/*
Package factory provides JSON to Go configuration conversion.

PURPOSE:
  Converts JSON jurisdiction definitions into the engine configuration
  structs (payroll.Config, attendance.Config, geofence.Config). This keeps
  statutory constants - tax brackets, social security rate and cap, the
  daily overtime threshold, anti-spoofing thresholds and risk weights - out
  of code, so a jurisdiction change is a data change.

WHY JSON?
  - Non-developers can review and amend statutory tables
  - Version control for jurisdiction definitions
  - Database or file storage of configs
  - Deterministic testing against alternate tables

JSON SCHEMA:
  {
    "name": "default",
    "classifier": {"daily_regular_hours": 8},
    "payroll": {
      "overtime_multiplier": 1.5,
      "holiday_multiplier": 2.0,
      "social_security_rate": 0.05,
      "social_security_cap": 750,
      "annual_exemption": 60000,
      "brackets": [
        {"min": 0, "max": 150000, "rate": 0},
        {"min": 150000, "max": 300000, "rate": 0.05},
        {"min": 5000000, "rate": 0.35}
      ]
    },
    "geofence": {
      "max_speed_kmh": 200,
      "max_accuracy_meters": 100,
      "outside_radius_weight": 50,
      "impossible_speed_weight": 40,
      "low_accuracy_weight": 25,
      "max_acceptable_risk": 70
    }
  }

  Omitted sections keep their shipped defaults; a partial file only
  overrides what it names.

USAGE:
  f := factory.NewConfigFactory()
  cfgs, err := f.Parse(jsonString)
  calc := payroll.NewCalculator(cfgs.Payroll)

SEE ALSO:
  - payroll/calc.go: Consumes payroll.Config
  - geofence/validate.go: Consumes geofence.Config
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/payday-engine/attendance"
	"github.com/warp/payday-engine/engine"
	"github.com/warp/payday-engine/geofence"
	"github.com/warp/payday-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// JurisdictionJSON is the JSON representation of a full engine configuration.
type JurisdictionJSON struct {
	Name       string          `json:"name"`
	Classifier *ClassifierJSON `json:"classifier,omitempty"`
	Payroll    *PayrollJSON    `json:"payroll,omitempty"`
	Geofence   *GeofenceJSON   `json:"geofence,omitempty"`
}

// Pointer fields distinguish "omitted, keep the default" from an explicit
// value. A jurisdiction may legitimately set a rate or exemption to 0.
type ClassifierJSON struct {
	DailyRegularHours *float64 `json:"daily_regular_hours,omitempty"`
}

type PayrollJSON struct {
	OvertimeMultiplier *float64      `json:"overtime_multiplier,omitempty"`
	HolidayMultiplier  *float64      `json:"holiday_multiplier,omitempty"`
	SocialSecurityRate *float64      `json:"social_security_rate,omitempty"`
	SocialSecurityCap  *float64      `json:"social_security_cap,omitempty"`
	AnnualExemption    *float64      `json:"annual_exemption,omitempty"`
	Brackets           []BracketJSON `json:"brackets,omitempty"`
	MaxTotalHours      *float64      `json:"max_total_hours,omitempty"`
	MaxHourlyRate      *float64      `json:"max_hourly_rate,omitempty"`
}

// BracketJSON is one marginal bracket; max omitted or 0 means unbounded.
type BracketJSON struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max,omitempty"`
	Rate float64 `json:"rate"`
}

type GeofenceJSON struct {
	MaxSpeedKmh           *float64 `json:"max_speed_kmh,omitempty"`
	MaxAccuracyMeters     *float64 `json:"max_accuracy_meters,omitempty"`
	OutsideRadiusWeight   *int     `json:"outside_radius_weight,omitempty"`
	ImpossibleSpeedWeight *int     `json:"impossible_speed_weight,omitempty"`
	LowAccuracyWeight     *int     `json:"low_accuracy_weight,omitempty"`
	MaxAcceptableRisk     *int     `json:"max_acceptable_risk,omitempty"`
}

// Configs bundles every engine configuration for one jurisdiction.
type Configs struct {
	Name       string
	Classifier attendance.Config
	Payroll    payroll.Config
	Geofence   geofence.Config
}

// =============================================================================
// FACTORY
// =============================================================================

type ConfigFactory struct{}

func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{}
}

// Defaults returns the shipped configuration untouched.
func (f *ConfigFactory) Defaults() Configs {
	return Configs{
		Name:       "default",
		Classifier: attendance.DefaultConfig(),
		Payroll:    payroll.DefaultConfig(),
		Geofence:   geofence.DefaultConfig(),
	}
}

// Parse converts a jurisdiction JSON document into engine configs, layering
// it over the shipped defaults. Sections and fields the document omits keep
// their default values.
func (f *ConfigFactory) Parse(jsonStr string) (Configs, error) {
	var doc JurisdictionJSON
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return Configs{}, fmt.Errorf("invalid jurisdiction JSON: %w", err)
	}

	cfgs := f.Defaults()
	if doc.Name != "" {
		cfgs.Name = doc.Name
	}

	if doc.Classifier != nil && doc.Classifier.DailyRegularHours != nil {
		cfgs.Classifier.DailyRegularHours = *doc.Classifier.DailyRegularHours
	}

	if doc.Payroll != nil {
		applyPayroll(&cfgs.Payroll, doc.Payroll)
	}

	if doc.Geofence != nil {
		applyGeofence(&cfgs.Geofence, doc.Geofence)
	}

	if err := validate(cfgs); err != nil {
		return Configs{}, err
	}
	return cfgs, nil
}

func applyPayroll(cfg *payroll.Config, doc *PayrollJSON) {
	if doc.OvertimeMultiplier != nil {
		cfg.OvertimeMultiplier = *doc.OvertimeMultiplier
	}
	if doc.HolidayMultiplier != nil {
		cfg.HolidayMultiplier = *doc.HolidayMultiplier
	}
	if doc.SocialSecurityRate != nil {
		cfg.SocialSecurityRate = *doc.SocialSecurityRate
	}
	if doc.SocialSecurityCap != nil {
		cfg.SocialSecurityCap = engine.MoneyFromFloat(*doc.SocialSecurityCap)
	}
	if doc.AnnualExemption != nil {
		cfg.AnnualExemption = engine.MoneyFromFloat(*doc.AnnualExemption)
	}
	if doc.MaxTotalHours != nil {
		cfg.MaxTotalHours = *doc.MaxTotalHours
	}
	if doc.MaxHourlyRate != nil {
		cfg.MaxHourlyRate = engine.MoneyFromFloat(*doc.MaxHourlyRate)
	}
	if len(doc.Brackets) > 0 {
		brackets := make([]payroll.Bracket, 0, len(doc.Brackets))
		for _, b := range doc.Brackets {
			brackets = append(brackets, payroll.Bracket{
				Min:  engine.MoneyFromFloat(b.Min),
				Max:  engine.MoneyFromFloat(b.Max),
				Rate: b.Rate,
			})
		}
		cfg.Brackets = brackets
	}
}

func applyGeofence(cfg *geofence.Config, doc *GeofenceJSON) {
	if doc.MaxSpeedKmh != nil {
		cfg.MaxSpeedKmh = *doc.MaxSpeedKmh
	}
	if doc.MaxAccuracyMeters != nil {
		cfg.MaxAccuracyMeters = *doc.MaxAccuracyMeters
	}
	if doc.OutsideRadiusWeight != nil {
		cfg.OutsideRadiusWeight = *doc.OutsideRadiusWeight
	}
	if doc.ImpossibleSpeedWeight != nil {
		cfg.ImpossibleSpeedWeight = *doc.ImpossibleSpeedWeight
	}
	if doc.LowAccuracyWeight != nil {
		cfg.LowAccuracyWeight = *doc.LowAccuracyWeight
	}
	if doc.MaxAcceptableRisk != nil {
		cfg.MaxAcceptableRisk = *doc.MaxAcceptableRisk
	}
}

// validate rejects tables that cannot produce sane results.
func validate(cfgs Configs) error {
	if cfgs.Classifier.DailyRegularHours <= 0 {
		return fmt.Errorf("daily regular hours must be positive")
	}
	if cfgs.Payroll.SocialSecurityRate < 0 || cfgs.Payroll.SocialSecurityRate >= 1 {
		return fmt.Errorf("social security rate %v out of [0, 1)", cfgs.Payroll.SocialSecurityRate)
	}

	prev := engine.MoneyFromInt(-1)
	for i, b := range cfgs.Payroll.Brackets {
		if b.Rate < 0 || b.Rate >= 1 {
			return fmt.Errorf("bracket %d: rate %v out of [0, 1)", i, b.Rate)
		}
		if !b.Min.GreaterThan(prev) && i > 0 {
			return fmt.Errorf("bracket %d: minimums must be strictly increasing", i)
		}
		if b.Max.IsPositive() && !b.Max.GreaterThan(b.Min) {
			return fmt.Errorf("bracket %d: max must exceed min", i)
		}
		prev = b.Min
	}
	return nil
}
