/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's value types from the external API contract, allowing field
  renaming and version evolution without touching computation code.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Structural validation (parseable dates, known frequencies) happens in
  handlers. Business validation stays advisory: problem lists ride along
  in responses instead of blocking, matching the engine's error design.

SEE ALSO:
  - handlers.go: Uses these types
  - engine, payroll, schedule, geofence: The value types being mapped
*/
package api

import (
	"time"

	"github.com/warp/payday-engine/attendance"
	"github.com/warp/payday-engine/geofence"
	"github.com/warp/payday-engine/payroll"
	"github.com/warp/payday-engine/schedule"
	"github.com/warp/payday-engine/store"
)

// =============================================================================
// EMPLOYEES AND BRANCHES
// =============================================================================

type EmployeeDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourly_rate"`
	BranchID   string  `json:"branch_id,omitempty"`
}

type CreateEmployeeRequest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	HourlyRate float64 `json:"hourly_rate"`
	BranchID   string  `json:"branch_id"`
}

type BranchDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

type CreateBranchRequest struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// =============================================================================
// CLOCK-IN / CLOCK-OUT
// =============================================================================

type ClockInRequest struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
	Holiday        bool    `json:"holiday,omitempty"`
}

// VerificationDTO surfaces the anti-spoofing verdict verbatim so an
// operator can see exactly why a clock-in was refused.
type VerificationDTO struct {
	Valid          bool                            `json:"is_valid"`
	RiskScore      int                             `json:"risk_score"`
	Flags          []geofence.Flag                 `json:"flags"`
	Details        map[string]geofence.CheckDetail `json:"details"`
	DistanceMeters float64                         `json:"distance_meters"`
}

type ClockInResponse struct {
	Accepted     bool             `json:"accepted"`
	EntryID      string           `json:"entry_id,omitempty"`
	Verification *VerificationDTO `json:"verification"`
}

type ClockOutResponse struct {
	EntryID  string  `json:"entry_id"`
	Date     string  `json:"date"`
	ClockIn  string  `json:"clock_in"`
	ClockOut string  `json:"clock_out"`
	Hours    float64 `json:"hours"`
}

// =============================================================================
// ATTENDANCE SUMMARY
// =============================================================================

type BreakdownDTO struct {
	TotalHours    float64 `json:"total_hours"`
	RegularHours  float64 `json:"regular_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	HolidayHours  float64 `json:"holiday_hours"`
}

type AttendanceSummaryDTO struct {
	EmployeeID string       `json:"employee_id"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	Days       []DayDTO     `json:"days"`
	Breakdown  BreakdownDTO `json:"breakdown"`
}

type DayDTO struct {
	Date    string  `json:"date"`
	Hours   float64 `json:"hours"`
	Holiday bool    `json:"holiday"`
}

// =============================================================================
// PERIODS
// =============================================================================

type GeneratePeriodRequest struct {
	Frequency string `json:"frequency"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"` // custom only
	// Nil means the scheduler defaults; an explicit 0 is honored.
	CutoffDays *int `json:"cutoff_days,omitempty"`
	PayDays    *int `json:"pay_days,omitempty"`
}

type GenerateYearRequest struct {
	Year       int    `json:"year"`
	Frequency  string `json:"frequency"`
	CutoffDays *int   `json:"cutoff_days,omitempty"`
	PayDays    *int   `json:"pay_days,omitempty"`
}

type PeriodDTO struct {
	ID           string   `json:"id"`
	Frequency    string   `json:"frequency"`
	Start        string   `json:"period_start"`
	End          string   `json:"period_end"`
	Cutoff       string   `json:"cutoff_date"`
	PayDate      string   `json:"pay_date"`
	Description  string   `json:"description,omitempty"`
	Status       string   `json:"status"`
	CanProcess   bool     `json:"can_process"`
	DaysUntilPay int      `json:"days_until_pay"`
	Problems     []string `json:"problems,omitempty"`
}

// =============================================================================
// PAYROLL
// =============================================================================

type PreviewPayrollRequest struct {
	RegularHours    float64 `json:"regular_hours"`
	OvertimeHours   float64 `json:"overtime_hours"`
	HolidayHours    float64 `json:"holiday_hours"`
	HourlyRate      float64 `json:"hourly_rate"`
	SalaryAdvances  float64 `json:"salary_advances"`
	OtherDeductions float64 `json:"other_deductions"`
}

type PayrollResultDTO struct {
	EmployeeID string `json:"employee_id,omitempty"`

	RegularPay  float64 `json:"regular_pay"`
	OvertimePay float64 `json:"overtime_pay"`
	HolidayPay  float64 `json:"holiday_pay"`
	Gross       float64 `json:"gross_salary"`

	SocialSecurity  float64 `json:"social_security"`
	Tax             float64 `json:"tax_deduction"`
	SalaryAdvances  float64 `json:"salary_advances"`
	OtherDeductions float64 `json:"other_deductions"`
	TotalDeductions float64 `json:"total_deductions"`

	Net float64 `json:"net_salary"`

	Problems []string `json:"problems,omitempty"`
}

type RunPayrollRequest struct {
	// Optional per-employee deductions keyed by employee ID.
	SalaryAdvances  map[string]float64 `json:"salary_advances,omitempty"`
	OtherDeductions map[string]float64 `json:"other_deductions,omitempty"`
}

type RunPayrollResponse struct {
	PeriodID  string             `json:"period_id"`
	Completed int                `json:"completed"`
	Failed    int                `json:"failed"`
	Results   []PayrollResultDTO `json:"results"`
}

// =============================================================================
// SCHEDULER
// =============================================================================

type SchedulerRunDTO struct {
	ID             string `json:"id"`
	At             string `json:"at"`
	Frequency      string `json:"frequency"`
	PeriodsCreated int    `json:"periods_created"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toVerificationDTO(r geofence.Result) *VerificationDTO {
	return &VerificationDTO{
		Valid:          r.Valid,
		RiskScore:      r.RiskScore,
		Flags:          r.Flags,
		Details:        r.Details,
		DistanceMeters: r.DistanceMeters,
	}
}

func toBreakdownDTO(b attendance.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		TotalHours:    b.Total,
		RegularHours:  b.Regular,
		OvertimeHours: b.Overtime,
		HolidayHours:  b.Holiday,
	}
}

// toPeriodDTO derives status fields for one instant; the caller reads the
// clock once and reuses it across a whole listing.
func toPeriodDTO(p schedule.Period, now time.Time) PeriodDTO {
	return PeriodDTO{
		ID:           p.CanonicalID(),
		Frequency:    string(p.Frequency),
		Start:        p.Start.String(),
		End:          p.End.String(),
		Cutoff:       p.Cutoff.String(),
		PayDate:      p.PayDate.String(),
		Description:  p.Description,
		Status:       string(p.StatusAt(now)),
		CanProcess:   p.CanProcessAt(now),
		DaysUntilPay: p.DaysUntilPayAt(now),
		Problems:     p.Validate(),
	}
}

func toPayrollResultDTO(r payroll.Result) PayrollResultDTO {
	return PayrollResultDTO{
		RegularPay:      r.RegularPay.Float64(),
		OvertimePay:     r.OvertimePay.Float64(),
		HolidayPay:      r.HolidayPay.Float64(),
		Gross:           r.Gross.Float64(),
		SocialSecurity:  r.SocialSecurity.Float64(),
		Tax:             r.Tax.Float64(),
		SalaryAdvances:  r.SalaryAdvances.Float64(),
		OtherDeductions: r.OtherDeductions.Float64(),
		TotalDeductions: r.TotalDeductions.Float64(),
		Net:             r.Net.Float64(),
	}
}

func toEmployeeDTO(e store.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         string(e.ID),
		Name:       e.Name,
		HourlyRate: e.HourlyRate.Float64(),
		BranchID:   string(e.BranchID),
	}
}
