package progression

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/renalview/monitor/pkg/common/httpclient"
	"github.com/renalview/monitor/pkg/common/models"
)

// Client is the typed boundary to the progression backend: simulation
// control, patient records, per-patient history and the analyze proxy. It
// holds no state beyond the base URL; every method is one round trip.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(timeout),
	}
}

func (c *Client) CurrentCycle(ctx context.Context) (*models.CycleMetadata, error) {
	var payload struct {
		CycleMetadata models.CycleMetadata `json:"cycle_metadata"`
	}
	if err := c.get(ctx, "/api/progression/current-cycle", &payload); err != nil {
		return nil, err
	}
	return &payload.CycleMetadata, nil
}

func (c *Client) AdvanceCycle(ctx context.Context) (*models.AdvanceResult, error) {
	var payload struct {
		Result models.AdvanceResult `json:"result"`
	}
	if err := c.post(ctx, "/api/progression/advance-cycle", nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Result, nil
}

func (c *Client) ResetSimulation(ctx context.Context) error {
	return c.post(ctx, "/api/progression/reset-simulation", nil, nil)
}

func (c *Client) PatientHistory(ctx context.Context, patientID string) ([]models.HealthStateHistory, error) {
	var payload struct {
		ProgressionHistory []models.HealthStateHistory `json:"progression_history"`
	}
	path := "/api/progression/patient/" + url.PathEscape(patientID)
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}
	return payload.ProgressionHistory, nil
}

func (c *Client) PatientTreatments(ctx context.Context, patientID string) ([]models.Treatment, error) {
	var payload struct {
		Treatments []models.Treatment `json:"treatments"`
	}
	path := "/api/progression/patient/" + url.PathEscape(patientID) + "/treatments"
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}
	return payload.Treatments, nil
}

func (c *Client) Patients(ctx context.Context) ([]models.PatientRecord, error) {
	var payload struct {
		Patients []models.PatientRecord `json:"patients"`
	}
	if err := c.get(ctx, "/api/patients", &payload); err != nil {
		return nil, err
	}
	return payload.Patients, nil
}

func (c *Client) Patient(ctx context.Context, patientID string) (*models.PatientRecord, error) {
	var payload struct {
		Patient models.PatientRecord `json:"patient"`
	}
	path := "/api/patients/" + url.PathEscape(patientID)
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}
	return &payload.Patient, nil
}

func (c *Client) PatientObservations(ctx context.Context, patientID string) ([]models.Observation, error) {
	var payload struct {
		Observations []models.Observation `json:"observations"`
	}
	path := "/api/patients/" + url.PathEscape(patientID) + "/observations"
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}
	return payload.Observations, nil
}

// Analyze proxies one risk analysis and validates the tagged response shape:
// a success without an analysis payload, or a failure without an error
// message, is a malformed backend payload, not something to render.
func (c *Client) Analyze(ctx context.Context, patientID string, opts models.AnalyzeOptions) (*models.AnalysisOutcome, error) {
	var payload models.AnalysisResponse
	path := "/api/analyze/" + url.PathEscape(patientID)
	if err := c.post(ctx, path, opts, &payload); err != nil {
		return nil, err
	}
	outcome, err := payload.Outcome()
	if err != nil {
		return nil, fmt.Errorf("malformed analysis payload: %w", err)
	}
	return outcome, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding backend response: %w", err)
	}
	return nil
}

// apiErrorFrom lifts the backend's own error wording out of the response
// body when it sends the {"error": "..."} envelope, and falls back to the
// raw body or status text otherwise.
func apiErrorFrom(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
