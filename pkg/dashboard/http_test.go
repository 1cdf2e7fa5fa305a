package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/renalview/monitor/pkg/common/models"
	"github.com/renalview/monitor/pkg/progression"
	"github.com/renalview/monitor/pkg/terminology"
)

func newTestRouter(fake *fakeBackend) (*mux.Router, *progression.Controller) {
	service, controller := newTestService(fake)
	router := mux.NewRouter()
	NewHandler(service, controller).Register(router.PathPrefix("/api").Subrouter())
	return router, controller
}

func TestAdvanceAtLimitIsRejectedWithoutNetworkCall(t *testing.T) {
	fake := &fakeBackend{meta: &models.CycleMetadata{CurrentCycle: 24, TotalCycles: 24}}
	router, controller := newTestRouter(fake)
	if _, err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	fake.mu.Lock()
	fake.currentCalls = 0
	fake.mu.Unlock()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/cohort/advance", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "final cycle") {
		t.Fatalf("expected the fixed precondition message, got %q", rec.Body.String())
	}
	fake.mu.Lock()
	advances := fake.advanceCalls
	fake.mu.Unlock()
	if advances != 0 {
		t.Fatalf("expected zero backend calls, got %d", advances)
	}
}

func TestAdvanceReturnsResult(t *testing.T) {
	fake := &fakeBackend{
		meta:   &models.CycleMetadata{CurrentCycle: 6, TotalCycles: 24},
		result: &models.AdvanceResult{NewCycle: 7, PatientsProcessed: 50, AlertsGenerated: 3},
	}
	router, controller := newTestRouter(fake)
	if _, err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/cohort/advance", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Result models.AdvanceResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Result.NewCycle != 7 || payload.Result.AlertsGenerated != 3 {
		t.Fatalf("unexpected result payload: %+v", payload.Result)
	}
}

func TestResetWithoutConfirmationIsRejected(t *testing.T) {
	fake := &fakeBackend{meta: &models.CycleMetadata{CurrentCycle: 6, TotalCycles: 24}}
	router, _ := newTestRouter(fake)

	for _, body := range []string{"", `{}`, `{"confirm":false}`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/cohort/reset", strings.NewReader(body)))

		if rec.Code != http.StatusPreconditionRequired {
			t.Fatalf("body %q: expected 428, got %d", body, rec.Code)
		}
	}

	fake.mu.Lock()
	resets := fake.resetCalls
	fake.mu.Unlock()
	if resets != 0 {
		t.Fatalf("expected zero reset calls, got %d", resets)
	}
}

func TestResetConfirmedRunsAndClearsResult(t *testing.T) {
	fake := &fakeBackend{
		meta:   &models.CycleMetadata{CurrentCycle: 6, TotalCycles: 24},
		result: &models.AdvanceResult{NewCycle: 7},
	}
	router, controller := newTestRouter(fake)
	if _, err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, err := controller.Advance(context.Background()); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if controller.State().LastResult == nil {
		t.Fatal("expected retained result before reset")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/cohort/reset", strings.NewReader(`{"confirm":true}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if controller.State().LastResult != nil {
		t.Fatal("expected retained result cleared by reset")
	}
}

func TestUnknownPatientMapsTo404(t *testing.T) {
	router, _ := newTestRouter(&fakeBackend{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/patients/ghost", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "patient not found") {
		t.Fatalf("expected backend wording passed through, got %q", rec.Body.String())
	}
}

func TestBackendFailureMapsTo502Verbatim(t *testing.T) {
	fake := &fakeBackend{failWith: &progression.APIError{StatusCode: 500, Message: "simulation engine crashed"}}
	router, _ := newTestRouter(fake)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/cohort/patients", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "simulation engine crashed") {
		t.Fatalf("expected backend wording verbatim, got %q", rec.Body.String())
	}
}

func TestOperationsRejectsBadLimit(t *testing.T) {
	router, _ := newTestRouter(&fakeBackend{})

	// Values above 200 are rejected rather than silently shrunk: the
	// audit layer would otherwise reset them to 50 without any signal.
	for _, raw := range []string{"zero", "0", "-5", "201", "500"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/cohort/operations?limit="+raw, nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s: expected 400, got %d", raw, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/cohort/operations?limit=200", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("limit=200: expected 200, got %d", rec.Code)
	}
}

func TestActivityEndpointServesFeed(t *testing.T) {
	fake := &fakeBackend{}
	feed := NewFeed(10)
	feed.Record(models.Event{ID: "evt-1", Type: models.EventCycleAdvanced, Source: "scheduler"})

	controller := progression.NewController(fake)
	service := NewService(fake, controller, terminology.DefaultCatalog(), WithFeed(feed))
	router := mux.NewRouter()
	NewHandler(service, controller).Register(router.PathPrefix("/api").Subrouter())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/activity", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Events []models.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Events) != 1 || payload.Events[0].ID != "evt-1" {
		t.Fatalf("unexpected feed payload: %+v", payload.Events)
	}
}
