/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the computation engine via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the pure engine packages. All I/O
  (store reads/writes) happens here; the engine itself stays side-effect
  free.

ENDPOINTS:
  Employees:
    GET    /api/employees                     List employees
    POST   /api/employees                     Create employee
    GET    /api/employees/{id}                Get employee
    POST   /api/employees/{id}/clock-in       Gated clock-in
    POST   /api/employees/{id}/clock-out      Close the open entry
    GET    /api/employees/{id}/attendance     Classified hours for a range
    GET    /api/employees/{id}/rejections     Refused clock-ins (audit)

  Branches:
    POST   /api/branches                      Create branch (workplace)
    GET    /api/branches/{id}                 Get branch

  Periods:
    POST   /api/periods                       Generate + persist one period
    POST   /api/periods/year                  Pre-populate a year
    GET    /api/periods?year=                 List with derived status
    GET    /api/periods/{id}                  Get one period
    POST   /api/periods/{id}/run              Run payroll (cutoff-gated)

  Payroll:
    POST   /api/payroll/preview               Calculate without persisting

  Scheduler:
    GET    /api/scheduler/runs                Pre-population audit trail

CLOCK-IN FLOW:
  1. Load employee and branch geometry
  2. Load the movement-history window (last 30 days of clock-ins)
  3. geofence.Validate - pure decision
  4. Refused: record the attempt (no completion timestamp) and answer 403
     with the full verdict attached
  5. Accepted: OpenEntry; the store's uniqueness constraint answers 409 if
     an open entry already exists (double-tap, retry-after-timeout)

ERROR HANDLING:
  Errors map to JSON with appropriate HTTP status:
  - 400: Malformed input, unknown frequency
  - 404: Missing employee/branch/period
  - 403: Clock-in refused by location verification
  - 409: Conflict (duplicate period, open entry, cutoff not reached)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background period pre-population
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/payday-engine/attendance"
	"github.com/warp/payday-engine/engine"
	"github.com/warp/payday-engine/factory"
	"github.com/warp/payday-engine/geofence"
	"github.com/warp/payday-engine/payroll"
	"github.com/warp/payday-engine/schedule"
	"github.com/warp/payday-engine/store"
)

// historyWindow bounds the movement history the validator sees.
const historyWindow = 30 * 24 * time.Hour

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store store.Store
	Clock engine.Clock

	classifier *attendance.Classifier
	calculator *payroll.Calculator
	validator  *geofence.Validator
	runner     *payroll.Runner
}

// NewHandler wires the engine components for one jurisdiction configuration.
func NewHandler(st store.Store, cfgs factory.Configs) *Handler {
	calc := payroll.NewCalculator(cfgs.Payroll)
	return &Handler{
		Store:      st,
		Clock:      engine.SystemClock{},
		classifier: attendance.NewClassifier(cfgs.Classifier),
		calculator: calc,
		validator:  geofence.NewValidator(cfgs.Geofence),
		runner:     payroll.NewRunner(calc, 4),
	}
}

// =============================================================================
// EMPLOYEES AND BRANCHES
// =============================================================================

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" || req.HourlyRate <= 0 {
		writeError(w, http.StatusBadRequest, "id and a positive hourly_rate are required")
		return
	}

	e := store.Employee{
		ID:         engine.EmployeeID(req.ID),
		Name:       req.Name,
		HourlyRate: engine.MoneyFromFloat(req.HourlyRate),
		BranchID:   engine.BranchID(req.BranchID),
	}
	if err := h.Store.CreateEmployee(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Store.GetEmployee(r.Context(), engine.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" || req.RadiusMeters <= 0 {
		writeError(w, http.StatusBadRequest, "id and a positive radius_meters are required")
		return
	}

	b := store.Branch{
		ID:           engine.BranchID(req.ID),
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
	}
	if err := h.Store.CreateBranch(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, BranchDTO(req))
}

func (h *Handler) GetBranch(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.GetBranch(r.Context(), engine.BranchID(chi.URLParam(r, "id")))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BranchDTO{
		ID: string(b.ID), Name: b.Name,
		Latitude: b.Latitude, Longitude: b.Longitude, RadiusMeters: b.RadiusMeters,
	})
}

// =============================================================================
// CLOCK-IN / CLOCK-OUT
// =============================================================================

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID := engine.EmployeeID(chi.URLParam(r, "id"))

	var req ClockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	employee, err := h.Store.GetEmployee(r.Context(), employeeID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	branch, err := h.Store.GetBranch(r.Context(), employee.BranchID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	now := h.Clock.Now()
	history, err := h.locationHistory(r.Context(), employeeID, now.Add(-historyWindow))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	claimed := geofence.Sample{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
		Timestamp:      now,
	}
	verdict := h.validator.Validate(claimed, geofence.Context{
		Workplace: geofence.Workplace{
			Latitude:     branch.Latitude,
			Longitude:    branch.Longitude,
			RadiusMeters: branch.RadiusMeters,
		},
		History: history,
	})

	if !verdict.Valid {
		h.recordRejection(r.Context(), employeeID, claimed, verdict)
		writeJSON(w, http.StatusForbidden, ClockInResponse{
			Accepted:     false,
			Verification: toVerificationDTO(verdict),
		})
		return
	}

	entry := store.AttendanceEntry{
		ID:             uuid.NewString(),
		EmployeeID:     employeeID,
		Date:           engine.FromTime(now),
		ClockIn:        now,
		Holiday:        req.Holiday,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
	}
	if err := h.Store.OpenEntry(r.Context(), entry); err != nil {
		if errors.Is(err, engine.ErrOpenAttendanceEntry) {
			writeError(w, http.StatusConflict, "an open attendance entry already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	clockInsAccepted.Inc()
	writeJSON(w, http.StatusCreated, ClockInResponse{
		Accepted:     true,
		EntryID:      entry.ID,
		Verification: toVerificationDTO(verdict),
	})
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID := engine.EmployeeID(chi.URLParam(r, "id"))
	now := h.Clock.Now()

	entry, err := h.Store.CloseEntry(r.Context(), employeeID, now)
	if err != nil {
		if errors.Is(err, engine.ErrNoOpenAttendanceEntry) {
			writeError(w, http.StatusConflict, "no open attendance entry to close")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ClockOutResponse{
		EntryID:  entry.ID,
		Date:     entry.Date.String(),
		ClockIn:  entry.ClockIn.UTC().Format(time.RFC3339),
		ClockOut: now.UTC().Format(time.RFC3339),
		Hours:    entry.Hours,
	})
}

func (h *Handler) AttendanceSummary(w http.ResponseWriter, r *http.Request) {
	employeeID := engine.EmployeeID(chi.URLParam(r, "id"))

	from, err := engine.ParseTimePoint(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := engine.ParseTimePoint(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}

	intervals, err := h.intervalsInRange(r.Context(), employeeID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	days := attendance.AggregateDays(intervals)
	breakdown := h.classifier.ClassifyDays(days)

	dayDTOs := make([]DayDTO, 0, len(days))
	for _, d := range days {
		dayDTOs = append(dayDTOs, DayDTO{Date: d.Date.String(), Hours: d.Hours, Holiday: d.Holiday})
	}
	writeJSON(w, http.StatusOK, AttendanceSummaryDTO{
		EmployeeID: string(employeeID),
		From:       from.String(),
		To:         to.String(),
		Days:       dayDTOs,
		Breakdown:  toBreakdownDTO(breakdown),
	})
}

func (h *Handler) ListRejections(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.Store.ListRejectedAttempts(r.Context(), engine.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// =============================================================================
// PERIODS
// =============================================================================

func (h *Handler) GeneratePeriod(w http.ResponseWriter, r *http.Request) {
	var req GeneratePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	spec := schedule.Spec{
		Frequency:  schedule.Frequency(req.Frequency),
		CutoffDays: req.CutoffDays,
		PayDays:    req.PayDays,
	}
	if req.StartDate != "" {
		start, err := engine.ParseTimePoint(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		spec.StartDate = start
		spec.CustomStart = start
	}
	if req.EndDate != "" {
		end, err := engine.ParseTimePoint(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		spec.CustomEnd = end
	}

	period, err := schedule.GeneratePeriod(spec)
	if err != nil {
		if errors.Is(err, engine.ErrUnsupportedFrequency) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.Store.CreatePeriod(r.Context(), period); err != nil {
		if errors.Is(err, engine.ErrDuplicatePeriod) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(period, h.Clock.Now()))
}

func (h *Handler) GenerateYear(w http.ResponseWriter, r *http.Request) {
	var req GenerateYearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Year < 1970 || req.Year > 9999 {
		writeError(w, http.StatusBadRequest, "year out of range")
		return
	}

	periods, err := schedule.GeneratePeriodsForYear(req.Year, schedule.Frequency(req.Frequency), req.CutoffDays, req.PayDays)
	if err != nil {
		if errors.Is(err, engine.ErrUnsupportedFrequency) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := h.Clock.Now()
	created := make([]PeriodDTO, 0, len(periods))
	for _, p := range periods {
		err := h.Store.CreatePeriod(r.Context(), p)
		if errors.Is(err, engine.ErrDuplicatePeriod) {
			continue // already populated, skip silently
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		created = append(created, toPeriodDTO(p, now))
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	year := h.Clock.Now().Year()
	if q := r.URL.Query().Get("year"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "year must be an integer")
			return
		}
		year = parsed
	}

	periods, err := h.Store.ListPeriods(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// One clock read for the whole listing keeps statuses consistent.
	now := h.Clock.Now()
	out := make([]PeriodDTO, 0, len(periods))
	for _, p := range periods {
		out = append(out, toPeriodDTO(p, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Store.GetPeriod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(period, h.Clock.Now()))
}

// =============================================================================
// PAYROLL
// =============================================================================

// PreviewPayroll calculates without persisting. Advisory problems ride
// along in the response; they never block the calculation.
func (h *Handler) PreviewPayroll(w http.ResponseWriter, r *http.Request) {
	var req PreviewPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	hours := attendance.Breakdown{
		Total:    req.RegularHours + req.OvertimeHours + req.HolidayHours,
		Regular:  req.RegularHours,
		Overtime: req.OvertimeHours,
		Holiday:  req.HolidayHours,
	}
	rate := engine.MoneyFromFloat(req.HourlyRate)
	advances := engine.MoneyFromFloat(req.SalaryAdvances)
	other := engine.MoneyFromFloat(req.OtherDeductions)

	result := h.calculator.Calculate(hours, rate, advances, other)
	dto := toPayrollResultDTO(result)
	dto.Problems = h.calculator.ValidateInput(hours, rate, advances, other)
	writeJSON(w, http.StatusOK, dto)
}

// RunPayroll executes the period's payroll for every employee, gated on
// the cutoff. Partial-failure semantics: one employee's bad inputs never
// block the rest.
func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	period, err := h.Store.GetPeriod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	now := h.Clock.Now()
	if !period.CanProcessAt(now) {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("%s: cutoff is %s", engine.ErrPeriodNotProcessable, period.Cutoff))
		return
	}

	var req RunPayrollRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]payroll.Item, 0, len(employees))
	for _, e := range employees {
		intervals, err := h.intervalsInRange(r.Context(), e.ID, period.Start, period.End)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, payroll.Item{
			EmployeeID:      e.ID,
			Hours:           h.classifier.ClassifyIntervals(intervals),
			HourlyRate:      e.HourlyRate,
			SalaryAdvances:  engine.MoneyFromFloat(req.SalaryAdvances[string(e.ID)]),
			OtherDeductions: engine.MoneyFromFloat(req.OtherDeductions[string(e.ID)]),
		})
	}

	started := time.Now()
	batch := h.runner.Run(r.Context(), items)
	payrollBatchDuration.Observe(time.Since(started).Seconds())
	payrollRunsTotal.Inc()

	resp := RunPayrollResponse{
		PeriodID:  period.CanonicalID(),
		Completed: batch.Completed,
		Failed:    batch.Failed,
	}
	for _, item := range batch.Items {
		dto := toPayrollResultDTO(item.Result)
		dto.EmployeeID = string(item.EmployeeID)
		dto.Problems = item.Problems
		resp.Results = append(resp.Results, dto)

		if item.Failed() {
			payrollItemsFailed.Inc()
			continue
		}
		saved := store.PayrollResult{
			EmployeeID:      item.EmployeeID,
			PeriodID:        period.CanonicalID(),
			RegularHours:    item.Result.Hours.Regular,
			OvertimeHours:   item.Result.Hours.Overtime,
			HolidayHours:    item.Result.Hours.Holiday,
			Gross:           item.Result.Gross,
			SocialSecurity:  item.Result.SocialSecurity,
			Tax:             item.Result.Tax,
			SalaryAdvances:  item.Result.SalaryAdvances,
			OtherDeductions: item.Result.OtherDeductions,
			TotalDeductions: item.Result.TotalDeductions,
			Net:             item.Result.Net,
			CalculatedAt:    now,
		}
		if err := h.Store.SavePayrollResult(r.Context(), saved); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SCHEDULER
// =============================================================================

func (h *Handler) ListSchedulerRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListSchedulerRuns(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]SchedulerRunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, SchedulerRunDTO{
			ID:             run.ID,
			At:             run.At.UTC().Format(time.RFC3339),
			Frequency:      string(run.Frequency),
			PeriodsCreated: run.PeriodsCreated,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

func (h *Handler) locationHistory(ctx context.Context, id engine.EmployeeID, since time.Time) ([]geofence.Sample, error) {
	entries, err := h.Store.LocationHistory(ctx, id, since)
	if err != nil {
		return nil, err
	}
	samples := make([]geofence.Sample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, geofence.Sample{
			Latitude:       e.Latitude,
			Longitude:      e.Longitude,
			AccuracyMeters: e.AccuracyMeters,
			Timestamp:      e.ClockIn,
		})
	}
	return samples, nil
}

func (h *Handler) intervalsInRange(ctx context.Context, id engine.EmployeeID, from, to engine.TimePoint) ([]attendance.Interval, error) {
	entries, err := h.Store.EntriesInRange(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	intervals := make([]attendance.Interval, 0, len(entries))
	for _, e := range entries {
		intervals = append(intervals, attendance.Interval{
			Date:    e.Date,
			Hours:   e.Hours,
			Holiday: e.Holiday,
		})
	}
	return intervals, nil
}

func (h *Handler) recordRejection(ctx context.Context, id engine.EmployeeID, claimed geofence.Sample, verdict geofence.Result) {
	flags := make([]string, 0, len(verdict.Flags))
	firstFlag := "none"
	for i, f := range verdict.Flags {
		flags = append(flags, string(f))
		if i == 0 {
			firstFlag = string(f)
		}
	}
	clockInsRejected.WithLabelValues(firstFlag).Inc()

	reason := ""
	if d, ok := verdict.Details["basic_verification"]; ok && !d.Passed {
		reason = d.Message
	} else if d, ok := verdict.Details["speed_check"]; ok && !d.Passed {
		reason = d.Message
	}

	// Audit record only; a failure to write it must not mask the verdict.
	_ = h.Store.RecordRejectedAttempt(ctx, store.RejectedAttempt{
		ID:             uuid.NewString(),
		EmployeeID:     id,
		At:             claimed.Timestamp,
		Latitude:       claimed.Latitude,
		Longitude:      claimed.Longitude,
		AccuracyMeters: claimed.AccuracyMeters,
		RiskScore:      verdict.RiskScore,
		Flags:          flags,
		Reason:         reason,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case engine.IsClientError(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
