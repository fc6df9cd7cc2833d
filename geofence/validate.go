/*
Package geofence decides whether a claimed clock-in location is trustworthy.

PURPOSE:
  Scores a claimed GPS location against the workplace geofence and the
  employee's recent movement history, and either accepts or rejects the
  clock-in. This is the gate in front of attendance recording: an external
  request handler calls Validate before any attendance entry is written.

CHECKS:
  1. Basic verification: haversine distance to the workplace must be within
     the allowed radius, else OUTSIDE_RADIUS
  2. Speed check: every temporally adjacent pair of samples (history plus
     the new claim) implies a travel speed; above the ceiling raises
     IMPOSSIBLE_SPEED - this catches teleportation between clock actions
  3. Accuracy check: a reported GPS accuracy above the ceiling marks the
     sample low-confidence (LOW_ACCURACY) - risk only, never a hard reject

RISK MODEL:
  Each raised flag adds its configured weight to a 0-100 risk score
  (independent flags sum, capped at 100). A result is valid only when no
  critical flag is present AND the score is at or under the acceptance
  threshold. OUTSIDE_RADIUS and IMPOSSIBLE_SPEED are critical: their
  presence alone forces rejection regardless of aggregate score.

CONTRACT:
  Validate never fails for bad-but-well-typed input; it always returns a
  result object with per-check details so an operator can see exactly why
  a clock-in was refused. It is read-only with respect to history - the
  caller persists failed attempts for audit.

SEE ALSO:
  - api/handlers.go: The clock-in workflow consuming these results
*/
package geofence

import (
	"fmt"
	"math"
	"time"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// Sample is one GPS observation. History is an ordered, append-only window
// (e.g. the last 30 days) supplied by the caller; the validator stores
// nothing.
type Sample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	Timestamp      time.Time
}

// Workplace is the geofence the claim is checked against.
type Workplace struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Context bundles everything Validate needs beyond the claim itself.
type Context struct {
	Workplace Workplace
	History   []Sample
}

// =============================================================================
// FLAGS AND RESULT
// =============================================================================

type Flag string

const (
	FlagOutsideRadius   Flag = "OUTSIDE_RADIUS"
	FlagImpossibleSpeed Flag = "IMPOSSIBLE_SPEED"
	FlagLowAccuracy     Flag = "LOW_ACCURACY"
)

// Critical reports whether this flag alone forces rejection.
func (f Flag) Critical() bool {
	return f == FlagOutsideRadius || f == FlagImpossibleSpeed
}

// CheckDetail records the outcome of one individual check for operator
// messaging ("you are 587000m from the workplace, max allowed 50m").
type CheckDetail struct {
	Passed  bool
	Message string
}

// Result is the full verdict. Valid is derived, never set by a caller.
type Result struct {
	Valid     bool
	RiskScore int
	Flags     []Flag

	// Per-check details keyed by check name: "basic_verification",
	// "speed_check", "accuracy_check".
	Details map[string]CheckDetail

	// DistanceMeters is the haversine distance to the workplace, always
	// populated for messaging regardless of verdict.
	DistanceMeters float64
}

// HasFlag reports whether the given flag was raised.
func (r Result) HasFlag(f Flag) bool {
	for _, have := range r.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config carries the tunable thresholds and risk weights. The shipped
// defaults are operating points, not physical constants; jurisdictions or
// deployments may tune them.
type Config struct {
	// MaxSpeedKmh is the plausible travel ceiling between consecutive
	// samples. ~200 km/h covers any ground vehicle.
	MaxSpeedKmh float64

	// MaxAccuracyMeters above which a sample is low-confidence.
	MaxAccuracyMeters float64

	// Risk weights per flag; independent flags sum, capped at 100.
	OutsideRadiusWeight   int
	ImpossibleSpeedWeight int
	LowAccuracyWeight     int

	// MaxAcceptableRisk is the score at or under which a flag-free-of-
	// criticals result is still accepted.
	MaxAcceptableRisk int
}

func DefaultConfig() Config {
	return Config{
		MaxSpeedKmh:           200,
		MaxAccuracyMeters:     100,
		OutsideRadiusWeight:   50,
		ImpossibleSpeedWeight: 40,
		LowAccuracyWeight:     25,
		MaxAcceptableRisk:     70,
	}
}

// =============================================================================
// HAVERSINE DISTANCE
// =============================================================================

const earthRadiusMeters = 6371000

// Distance returns the great-circle distance in meters between two
// latitude/longitude points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// =============================================================================
// VALIDATOR
// =============================================================================

type Validator struct {
	cfg Config
}

func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Validate runs every check against the claimed sample and aggregates the
// verdict. Always returns a result; never an error.
func (v *Validator) Validate(claimed Sample, vctx Context) Result {
	result := Result{Details: make(map[string]CheckDetail)}

	v.checkRadius(claimed, vctx.Workplace, &result)
	v.checkSpeed(claimed, vctx.History, &result)
	v.checkAccuracy(claimed, &result)

	score := 0
	critical := false
	for _, f := range result.Flags {
		score += v.weightFor(f)
		if f.Critical() {
			critical = true
		}
	}
	if score > 100 {
		score = 100
	}

	result.RiskScore = score
	result.Valid = !critical && score <= v.cfg.MaxAcceptableRisk
	return result
}

func (v *Validator) checkRadius(claimed Sample, wp Workplace, result *Result) {
	distance := Distance(claimed.Latitude, claimed.Longitude, wp.Latitude, wp.Longitude)
	result.DistanceMeters = distance

	if distance <= wp.RadiusMeters {
		result.Details["basic_verification"] = CheckDetail{
			Passed:  true,
			Message: fmt.Sprintf("within workplace radius (%.0fm of %.0fm allowed)", distance, wp.RadiusMeters),
		}
		return
	}

	result.Flags = append(result.Flags, FlagOutsideRadius)
	result.Details["basic_verification"] = CheckDetail{
		Passed:  false,
		Message: fmt.Sprintf("you are %.0fm from the workplace, max allowed %.0fm", distance, wp.RadiusMeters),
	}
}

// checkSpeed walks temporally adjacent pairs, history plus the new claim,
// and flags any implied speed above the ceiling.
func (v *Validator) checkSpeed(claimed Sample, history []Sample, result *Result) {
	samples := make([]Sample, 0, len(history)+1)
	samples = append(samples, history...)
	samples = append(samples, claimed)

	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		elapsed := cur.Timestamp.Sub(prev.Timestamp)
		if elapsed < 0 {
			continue // out-of-order timestamps carry no speed signal
		}

		meters := Distance(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
		if elapsed == 0 {
			// Two distinct places at the same instant is a teleport, not a
			// division problem. A re-sent sample at the same spot is fine.
			if meters <= 1 {
				continue
			}
			result.Flags = append(result.Flags, FlagImpossibleSpeed)
			result.Details["speed_check"] = CheckDetail{
				Passed:  false,
				Message: fmt.Sprintf("moved %.0fm with no elapsed time", meters),
			}
			return
		}
		kmh := (meters / 1000) / elapsed.Hours()
		if kmh > v.cfg.MaxSpeedKmh {
			result.Flags = append(result.Flags, FlagImpossibleSpeed)
			result.Details["speed_check"] = CheckDetail{
				Passed:  false,
				Message: fmt.Sprintf("implied travel speed %.0f km/h exceeds the %.0f km/h ceiling", kmh, v.cfg.MaxSpeedKmh),
			}
			return
		}
	}

	result.Details["speed_check"] = CheckDetail{Passed: true, Message: "movement history is plausible"}
}

func (v *Validator) checkAccuracy(claimed Sample, result *Result) {
	if claimed.AccuracyMeters <= v.cfg.MaxAccuracyMeters {
		result.Details["accuracy_check"] = CheckDetail{
			Passed:  true,
			Message: fmt.Sprintf("GPS accuracy %.0fm is acceptable", claimed.AccuracyMeters),
		}
		return
	}

	// Low confidence contributes risk but is never a hard rejection.
	result.Flags = append(result.Flags, FlagLowAccuracy)
	result.Details["accuracy_check"] = CheckDetail{
		Passed:  false,
		Message: fmt.Sprintf("GPS accuracy %.0fm exceeds the %.0fm ceiling", claimed.AccuracyMeters, v.cfg.MaxAccuracyMeters),
	}
}

func (v *Validator) weightFor(f Flag) int {
	switch f {
	case FlagOutsideRadius:
		return v.cfg.OutsideRadiusWeight
	case FlagImpossibleSpeed:
		return v.cfg.ImpossibleSpeedWeight
	case FlagLowAccuracy:
		return v.cfg.LowAccuracyWeight
	}
	return 0
}
