package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payday-engine/engine"
	"github.com/warp/payday-engine/factory"
	"github.com/warp/payday-engine/store"
	"github.com/warp/payday-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const (
	officeLat = 13.7563
	officeLon = 100.5018
	remoteLat = 18.7883
	remoteLon = 98.9853
)

type testAPI struct {
	handler *Handler
	router  http.Handler
	store   *memory.Memory
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	require.NoError(t, st.CreateBranch(ctx, store.Branch{
		ID: "branch-1", Name: "HQ",
		Latitude: officeLat, Longitude: officeLon, RadiusMeters: 50,
	}))
	require.NoError(t, st.CreateEmployee(ctx, store.Employee{
		ID: "emp-1", Name: "Arisa", HourlyRate: engine.MoneyFromInt(150), BranchID: "branch-1",
	}))

	h := NewHandler(st, factory.NewConfigFactory().Defaults())
	return &testAPI{handler: h, router: NewRouter(h), store: st}
}

func (a *testAPI) setClock(at time.Time) {
	a.handler.Clock = engine.FixedClock{At: at}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// =============================================================================
// CLOCK-IN / CLOCK-OUT FLOW
// =============================================================================

func TestClockIn_AtWorkplace_Accepted(t *testing.T) {
	// GIVEN: An employee whose branch geofence covers the claimed location
	// WHEN: Clocking in
	// THEN: 201 with an entry ID; a second clock-in conflicts with 409

	a := newTestAPI(t)
	a.setClock(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))

	rec := a.do(t, http.MethodPost, "/api/employees/emp-1/clock-in", ClockInRequest{
		Latitude: officeLat, Longitude: officeLon, AccuracyMeters: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[ClockInResponse](t, rec)
	assert.True(t, resp.Accepted)
	assert.NotEmpty(t, resp.EntryID)
	require.NotNil(t, resp.Verification)
	assert.Equal(t, 0, resp.Verification.RiskScore)

	// Double-tap: the open entry blocks a second one
	rec = a.do(t, http.MethodPost, "/api/employees/emp-1/clock-in", ClockInRequest{
		Latitude: officeLat, Longitude: officeLon, AccuracyMeters: 10,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClockIn_FarAway_RejectedAndAudited(t *testing.T) {
	// GIVEN: A claim 587 km from the workplace
	// WHEN: Clocking in
	// THEN: 403 with the verdict attached, no entry is opened, and the
	//       attempt appears in the rejection audit trail

	a := newTestAPI(t)
	a.setClock(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))

	rec := a.do(t, http.MethodPost, "/api/employees/emp-1/clock-in", ClockInRequest{
		Latitude: remoteLat, Longitude: remoteLon, AccuracyMeters: 10,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	resp := decode[ClockInResponse](t, rec)
	assert.False(t, resp.Accepted)
	assert.Empty(t, resp.EntryID)
	require.NotNil(t, resp.Verification)
	assert.Contains(t, fmt.Sprint(resp.Verification.Flags), "OUTSIDE_RADIUS")
	assert.Greater(t, resp.Verification.DistanceMeters, 500_000.0)

	attempts, err := a.store.ListRejectedAttempts(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Contains(t, attempts[0].Flags, "OUTSIDE_RADIUS")

	// A clean clock-in still works afterwards
	rec = a.do(t, http.MethodPost, "/api/employees/emp-1/clock-in", ClockInRequest{
		Latitude: officeLat, Longitude: officeLon, AccuracyMeters: 10,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestClockOut_DerivesHours(t *testing.T) {
	// GIVEN: A clock-in at 09:00
	// WHEN: Clocking out at 17:30 the same day
	// THEN: The closed entry reports 8.5 hours

	a := newTestAPI(t)
	clockIn := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	a.setClock(clockIn)

	rec := a.do(t, http.MethodPost, "/api/employees/emp-1/clock-in", ClockInRequest{
		Latitude: officeLat, Longitude: officeLon, AccuracyMeters: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	a.setClock(clockIn.Add(8*time.Hour + 30*time.Minute))
	rec = a.do(t, http.MethodPost, "/api/employees/emp-1/clock-out", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ClockOutResponse](t, rec)
	assert.InDelta(t, 8.5, resp.Hours, 0.001)
	assert.Equal(t, "2026-03-02", resp.Date)

	// Nothing left to close
	rec = a.do(t, http.MethodPost, "/api/employees/emp-1/clock-out", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAttendanceSummary_ClassifiesRange(t *testing.T) {
	// GIVEN: A 10-hour closed day recorded via the clock-in/out flow
	// WHEN: Requesting the March summary
	// THEN: 8 regular + 2 overtime

	a := newTestAPI(t)
	clockIn := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	a.setClock(clockIn)
	rec := a.do(t, http.MethodPost, "/api/employees/emp-1/clock-in", ClockInRequest{
		Latitude: officeLat, Longitude: officeLon, AccuracyMeters: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	a.setClock(clockIn.Add(10 * time.Hour))
	rec = a.do(t, http.MethodPost, "/api/employees/emp-1/clock-out", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/employees/emp-1/attendance?from=2026-03-01&to=2026-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[AttendanceSummaryDTO](t, rec)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, 8.0, resp.Breakdown.RegularHours)
	assert.Equal(t, 2.0, resp.Breakdown.OvertimeHours)
}

func TestClockIn_UnknownEmployee_NotFound(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/employees/ghost/clock-in", ClockInRequest{
		Latitude: officeLat, Longitude: officeLon,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PERIODS
// =============================================================================

func TestGeneratePeriod_AndDuplicate(t *testing.T) {
	a := newTestAPI(t)
	a.setClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))

	req := GeneratePeriodRequest{Frequency: "monthly", StartDate: "2026-03-15"}

	rec := a.do(t, http.MethodPost, "/api/periods", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[PeriodDTO](t, rec)
	assert.Equal(t, "monthly:2026-03-01:2026-03-31", resp.ID)
	assert.Equal(t, "2026-04-07", resp.PayDate)
	assert.Equal(t, "active", resp.Status)
	assert.False(t, resp.CanProcess)

	// Same canonical identity again
	rec = a.do(t, http.MethodPost, "/api/periods", req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGeneratePeriod_UnknownFrequency_BadRequest(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/periods", GeneratePeriodRequest{
		Frequency: "quarterly", StartDate: "2026-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateYear_SkipsExisting(t *testing.T) {
	// GIVEN: March already generated by hand
	// WHEN: Pre-populating the whole year
	// THEN: 11 new periods; the existing one is skipped, not an error

	a := newTestAPI(t)
	a.setClock(time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC))

	rec := a.do(t, http.MethodPost, "/api/periods", GeneratePeriodRequest{
		Frequency: "monthly", StartDate: "2026-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/periods/year", GenerateYearRequest{
		Year: 2026, Frequency: "monthly",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[[]PeriodDTO](t, rec)
	assert.Len(t, created, 11)

	rec = a.do(t, http.MethodGet, "/api/periods?year=2026", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]PeriodDTO](t, rec)
	assert.Len(t, all, 12)
}

// =============================================================================
// PAYROLL RUN
// =============================================================================

func TestRunPayroll_BeforeCutoff_Gated(t *testing.T) {
	// GIVEN: March 2026 (cutoff April 4) and a clock set to March 20
	// WHEN: Running payroll
	// THEN: 409; the gate only opens at the cutoff

	a := newTestAPI(t)
	a.setClock(time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC))

	rec := a.do(t, http.MethodPost, "/api/periods", GeneratePeriodRequest{
		Frequency: "monthly", StartDate: "2026-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/periods/monthly:2026-03-01:2026-03-31/run", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRunPayroll_AfterCutoff_CalculatesAndPersists(t *testing.T) {
	// GIVEN: A closed 8-hour March day and the clock past the cutoff
	// WHEN: Running the period
	// THEN: A result is calculated and persisted for the employee

	a := newTestAPI(t)

	clockIn := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	a.setClock(clockIn)
	rec := a.do(t, http.MethodPost, "/api/employees/emp-1/clock-in", ClockInRequest{
		Latitude: officeLat, Longitude: officeLon, AccuracyMeters: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	a.setClock(clockIn.Add(8 * time.Hour))
	rec = a.do(t, http.MethodPost, "/api/employees/emp-1/clock-out", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/periods", GeneratePeriodRequest{
		Frequency: "monthly", StartDate: "2026-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	a.setClock(time.Date(2026, time.April, 5, 9, 0, 0, 0, time.UTC))
	rec = a.do(t, http.MethodPost, "/api/periods/monthly:2026-03-01:2026-03-31/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[RunPayrollResponse](t, rec)
	assert.Equal(t, 1, resp.Completed)
	assert.Equal(t, 0, resp.Failed)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "emp-1", resp.Results[0].EmployeeID)
	assert.InDelta(t, 1200.0, resp.Results[0].Gross, 0.001) // 8h * 150

	saved, err := a.store.ListPayrollResults(context.Background(), "monthly:2026-03-01:2026-03-31")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].Gross.Equal(engine.MoneyFromInt(1200)))
}

func TestPreviewPayroll_StatelessWithProblems(t *testing.T) {
	// GIVEN: A preview of hours that trip the sanity bound
	// WHEN: Posting the preview
	// THEN: 200 with the calculation and the advisory problems side by side

	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/payroll/preview", PreviewPayrollRequest{
		RegularHours: 380, OvertimeHours: 40, HourlyRate: 150,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[PayrollResultDTO](t, rec)
	assert.InDelta(t, 66000.0, resp.Gross, 0.001) // 380*150 + 40*225
	assert.NotEmpty(t, resp.Problems)
}
