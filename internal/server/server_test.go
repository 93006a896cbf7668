package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/internal/service"
	"github.com/iwvelando/deal-calculator/internal/store"
	"github.com/iwvelando/deal-calculator/pkg/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	svc := service.NewDealService(deal.NewEngine(logger, deal.AdvisorFunc(func(deal.Advisory) {})), store.NewMemoryRepository(), nil, logger)
	t.Cleanup(func() { _ = svc.Close() })
	return NewHandler(svc, cfg, logger, "v1.2.3")
}

func performJSON(t *testing.T, handler http.Handler, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("%s = %v, expected %v", name, got, want)
	}
}

func TestHandleVersion(t *testing.T) {
	handler := newTestHandler(t, nil)

	rr := performJSON(t, handler, http.MethodGet, "/api/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if resp["version"] != "v1.2.3" {
		t.Fatalf("expected version v1.2.3, got %q", resp["version"])
	}
}

func TestHandleVersionDefaultsToDev(t *testing.T) {
	handler := NewHandler(nil, nil, nil, "  ")

	rr := performJSON(t, handler, http.MethodGet, "/api/version", nil)
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if resp["version"] != "dev" {
		t.Fatalf("expected version dev, got %q", resp["version"])
	}
}

func TestHandleRecomputeBothVariants(t *testing.T) {
	handler := newTestHandler(t, nil)
	in := testutil.SampleInput()

	rr := performJSON(t, handler, http.MethodPost, "/api/recompute", map[string]interface{}{
		"domestic":      in,
		"international": in,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp recomputeResponse
	decodeBody(t, rr, &resp)
	if resp.Domestic == nil || resp.International == nil {
		t.Fatalf("expected both results, got %+v", resp)
	}
	assertClose(t, "domestic stamp duty", resp.Domestic.Metrics.StampDuty, 11500)
	assertClose(t, "domestic net cash flow", resp.Domestic.Metrics.NetAnnualCashFlow, 22500)
	assertClose(t, "international stamp duty", resp.International.Metrics.StampDuty, 15500)
	assertClose(t, "international lending fee", resp.International.Metrics.LendingFee, 7450)
	if len(resp.Domestic.Returns) != 7 || len(resp.International.Returns) != 6 {
		t.Fatalf("expected 7 and 6 return rows, got %d and %d", len(resp.Domestic.Returns), len(resp.International.Returns))
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
}

func TestHandleRecomputeSingleVariant(t *testing.T) {
	handler := newTestHandler(t, nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/recompute", map[string]interface{}{
		"variant": "uk",
		"input":   testutil.SampleInput(),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp recomputeResponse
	decodeBody(t, rr, &resp)
	if resp.Domestic == nil || resp.International != nil {
		t.Fatalf("expected only the domestic result, got %+v", resp)
	}
	assertClose(t, "capital in", resp.Domestic.Metrics.CapitalIn, 255300)
}

func TestHandleRecomputeMissingFields(t *testing.T) {
	handler := newTestHandler(t, nil)
	in := deal.Input{PurchasePrice: 200000, Category: "Residential"}

	rr := performJSON(t, handler, http.MethodPost, "/api/recompute", map[string]interface{}{
		"variant": "domestic",
		"input":   in,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp missingFieldsResponse
	decodeBody(t, rr, &resp)
	if len(resp.Missing[deal.Domestic]) != 11 {
		t.Fatalf("expected 11 missing domestic fields, got %v", resp.Missing[deal.Domestic])
	}

	rr = performJSON(t, handler, http.MethodPost, "/api/recompute", map[string]interface{}{
		"variant": "domestic",
		"input":   in,
		"force":   true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected forced recompute to succeed, got %d: %s", rr.Code, rr.Body.String())
	}
	var forced recomputeResponse
	decodeBody(t, rr, &forced)
	assertClose(t, "forced stamp duty", forced.Domestic.Metrics.StampDuty, 11500)
	if len(forced.Domestic.Advisories) == 0 {
		t.Fatal("expected advisories for the incomplete deal")
	}
}

func TestHandleRecomputeBadRequests(t *testing.T) {
	handler := newTestHandler(t, nil)

	tests := []struct {
		name    string
		payload interface{}
		raw     string
	}{
		{name: "empty body object", payload: map[string]interface{}{}},
		{name: "unknown variant", payload: map[string]interface{}{"variant": "lunar", "input": map[string]interface{}{}}},
		{name: "variant without input", payload: map[string]interface{}{"variant": "domestic"}},
		{name: "malformed json", raw: "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rr *httptest.ResponseRecorder
			if tt.raw != "" {
				req := httptest.NewRequest(http.MethodPost, "/api/recompute", strings.NewReader(tt.raw))
				rr = httptest.NewRecorder()
				handler.ServeHTTP(rr, req)
			} else {
				rr = performJSON(t, handler, http.MethodPost, "/api/recompute", tt.payload)
			}
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleRecomputeTooLarge(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	cfg.SetUploadSizeBytes(16)
	handler := newTestHandler(t, cfg)

	rr := performJSON(t, handler, http.MethodPost, "/api/recompute", map[string]interface{}{
		"domestic": testutil.SampleInput(),
	})
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleStage(t *testing.T) {
	handler := newTestHandler(t, nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/international/stages/lendingFee", map[string]interface{}{
		"input": testutil.SampleInput(),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var out service.StageOutput
	decodeBody(t, rr, &out)
	if out.Stage != deal.StageLendingFee {
		t.Fatalf("expected stage lendingFee, got %s", out.Stage)
	}
	assertClose(t, "lending fee", out.Metrics.LendingFee, 7450)

	rr = performJSON(t, handler, http.MethodPost, "/api/domestic/stages/growth", map[string]interface{}{
		"input": map[string]interface{}{"askingPrice": 100000},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &out)
	if len(out.Growth) != 11 {
		t.Fatalf("expected 11 growth rows, got %d", len(out.Growth))
	}
	assertClose(t, "terminal value", out.Growth[10].Value, 141060)
}

func TestHandleStageUnknown(t *testing.T) {
	handler := newTestHandler(t, nil)

	for _, path := range []string{"/api/domestic/stages/teleport", "/api/lunar/stages/rental"} {
		rr := performJSON(t, handler, http.MethodPost, path, map[string]interface{}{})
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d", path, rr.Code)
		}
	}
}

func createDeal(t *testing.T, handler http.Handler, name, variant string) store.Record {
	t.Helper()
	rr := performJSON(t, handler, http.MethodPost, "/api/deals", map[string]interface{}{
		"name":    name,
		"variant": variant,
		"input":   testutil.SampleInput(),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var record store.Record
	decodeBody(t, rr, &record)
	return record
}

func TestDealLifecycle(t *testing.T) {
	handler := newTestHandler(t, nil)

	created := createDeal(t, handler, "terrace", "domestic")
	if created.ID == "" {
		t.Fatal("expected an id for the new deal")
	}
	assertClose(t, "stored net cash flow", created.Result.Metrics.NetAnnualCashFlow, 22500)

	rr := performJSON(t, handler, http.MethodGet, "/api/deals/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	createDeal(t, handler, "shop", "international")
	rr = performJSON(t, handler, http.MethodGet, "/api/deals", nil)
	var records []store.Record
	decodeBody(t, rr, &records)
	if len(records) != 2 || records[0].Name != "terrace" {
		t.Fatalf("expected two deals oldest first, got %+v", records)
	}

	updated := testutil.SampleInput()
	updated.MonthlyRent = 4000
	rr = performJSON(t, handler, http.MethodPut, "/api/deals/"+created.ID, map[string]interface{}{
		"name":  "terrace v2",
		"input": updated,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var record store.Record
	decodeBody(t, rr, &record)
	if record.Name != "terrace v2" {
		t.Fatalf("expected renamed deal, got %q", record.Name)
	}
	assertClose(t, "updated gross rent", record.Result.Metrics.GrossAnnualRent, 48000)

	rr = performJSON(t, handler, http.MethodPost, "/api/deals/"+created.ID+"/recalculate", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = performJSON(t, handler, http.MethodDelete, "/api/deals/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = performJSON(t, handler, http.MethodGet, "/api/deals/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", rr.Code)
	}
}

func TestCreateDealValidation(t *testing.T) {
	handler := newTestHandler(t, nil)

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{name: "missing name", payload: map[string]interface{}{"variant": "domestic"}},
		{name: "unknown variant", payload: map[string]interface{}{"name": "x", "variant": "lunar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, http.MethodPost, "/api/deals", tt.payload)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleFieldChange(t *testing.T) {
	handler := newTestHandler(t, nil)
	created := createDeal(t, handler, "shop", "international")

	rr := performJSON(t, handler, http.MethodPatch, "/api/deals/"+created.ID+"/fields", map[string]interface{}{
		"field": "purchasePrice",
		"value": "£250,000",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp fieldChangeResponse
	decodeBody(t, rr, &resp)
	if len(resp.Stages) != 2 || resp.Stages[0] != deal.StageStampDuty || resp.Stages[1] != deal.StageLendingFee {
		t.Fatalf("expected stamp duty and lending fee stages, got %v", resp.Stages)
	}
	assertClose(t, "stamp duty", resp.Deal.Result.Metrics.StampDuty, 20000)
	assertClose(t, "lending fee", resp.Deal.Result.Metrics.LendingFee, 8575)
	assertClose(t, "capital in untouched", resp.Deal.Result.Metrics.CapitalIn, created.Result.Metrics.CapitalIn)

	rr = performJSON(t, handler, http.MethodPatch, "/api/deals/"+created.ID+"/fields", map[string]interface{}{
		"field":     "survey",
		"value":     1500,
		"recompute": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &resp)
	if len(resp.Stages) != len(deal.Stages()) {
		t.Fatalf("expected the full chain after recompute, got %v", resp.Stages)
	}
}

func TestHandleFieldChangeErrors(t *testing.T) {
	handler := newTestHandler(t, nil)
	created := createDeal(t, handler, "terrace", "domestic")

	tests := []struct {
		name   string
		id     string
		field  string
		value  interface{}
		status int
	}{
		{name: "unknown field", id: created.ID, field: "pool", value: 1, status: http.StatusBadRequest},
		{name: "blank field", id: created.ID, field: " ", value: 1, status: http.StatusBadRequest},
		{name: "category number", id: created.ID, field: "category", value: 5, status: http.StatusBadRequest},
		{name: "unknown deal", id: "does-not-exist", field: "survey", value: 1, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, http.MethodPatch, "/api/deals/"+tt.id+"/fields", map[string]interface{}{
				"field": tt.field,
				"value": tt.value,
			})
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	handler := newTestHandler(t, cfg)

	first := performJSON(t, handler, http.MethodGet, "/api/version", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}
	second := performJSON(t, handler, http.MethodGet, "/api/version", nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", second.Code)
	}
}
