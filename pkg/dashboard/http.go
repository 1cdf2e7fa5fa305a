package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/renalview/monitor/pkg/common/logger"
	"github.com/renalview/monitor/pkg/common/models"
	"github.com/renalview/monitor/pkg/progression"
)

// Handler exposes the dashboard API. Error mapping: local rejections from
// the controller become 409 (in flight, cycle limit) or 428 (missing reset
// confirmation); backend failures become 502 carrying the backend's own
// wording; everything else is a 500.
type Handler struct {
	service    *Service
	controller *progression.Controller
}

func NewHandler(service *Service, controller *progression.Controller) *Handler {
	return &Handler{service: service, controller: controller}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/dashboard/cohort", h.handleCohortOverview).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/cohort/patients", h.handleCohortPatients).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/cohort/advance", h.handleAdvance).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/cohort/reset", h.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/dashboard/cohort/operations", h.handleOperations).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/activity", h.handleActivity).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/patients/{id}", h.handlePatient).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/patients/{id}/series", h.handleSeries).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/patients/{id}/analyze", h.handleAnalyze).Methods(http.MethodPost)
}

func (h *Handler) handleCohortOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.CohortOverview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, overview)
}

func (h *Handler) handleCohortPatients(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.CohortPatients(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"patients": rows})
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	result, err := h.controller.Advance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"result": result})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload struct {
		Confirm bool `json:"confirm"`
	}
	// An absent or malformed body reads as unconfirmed; the controller
	// rejects unconfirmed resets before any network traffic.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		payload.Confirm = false
	}

	if err := h.controller.Reset(r.Context(), payload.Confirm); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "reset"})
}

func (h *Handler) handleOperations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			http.Error(w, "limit must be between 1 and 200", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	operations, err := h.service.Operations(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"operations": operations})
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"events": h.service.Activity()})
}

func (h *Handler) handlePatient(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]
	if patientID == "" {
		http.Error(w, "patient id is required", http.StatusBadRequest)
		return
	}

	board, err := h.service.PatientDashboard(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, board)
}

func (h *Handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["id"]
	if patientID == "" {
		http.Error(w, "patient id is required", http.StatusBadRequest)
		return
	}

	series, err := h.service.PatientSeries(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, series)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	patientID := mux.Vars(r)["id"]
	if patientID == "" {
		http.Error(w, "patient id is required", http.StatusBadRequest)
		return
	}

	opts := models.AnalyzeOptions{StoreResults: true, IncludePatientData: true}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			http.Error(w, "invalid analyze options", http.StatusBadRequest)
			return
		}
	}

	view, err := h.service.Analyze(r.Context(), patientID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, view)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, progression.ErrAdvanceInFlight),
		errors.Is(err, progression.ErrResetInFlight),
		errors.Is(err, progression.ErrCycleLimitReached):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, progression.ErrConfirmationRequired):
		http.Error(w, err.Error(), http.StatusPreconditionRequired)
		return
	}

	if apiErr, ok := progression.IsAPIError(err); ok {
		status := http.StatusBadGateway
		if apiErr.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		http.Error(w, apiErr.Message, status)
		return
	}

	logger.Log.WithError(err).Error("dashboard request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
