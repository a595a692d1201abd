package server_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/moshipping/labelbridge/internal/docstore"
	"github.com/moshipping/labelbridge/internal/labels"
	"github.com/moshipping/labelbridge/internal/orderstore"
	"github.com/moshipping/labelbridge/internal/server"
	"github.com/moshipping/labelbridge/internal/telemetry"
	"github.com/moshipping/labelbridge/pkg/carrier"
)

type fakeCarrier struct {
	trackEvents []carrier.TrackingEvent
	trackErr    error
	valid       bool
	shipment    *carrier.ShipmentResult
	shipmentErr error
}

func (f *fakeCarrier) FetchLabel(_ context.Context, awb string) (*carrier.LabelSet, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 14)
	pdf.Cell(40, 10, awb)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &carrier.LabelSet{AWB: awb, Pages: []carrier.LabelPage{
		{AWB: awb, Index: 0, Data: base64.StdEncoding.EncodeToString(buf.Bytes())},
	}}, nil
}

func (f *fakeCarrier) Track(context.Context, string, string) ([]carrier.TrackingEvent, error) {
	return f.trackEvents, f.trackErr
}

func (f *fakeCarrier) ValidateCredentials(context.Context) bool {
	return f.valid
}

func (f *fakeCarrier) CreateShipment(context.Context, *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	return f.shipment, f.shipmentErr
}

func newTestServer(t *testing.T, fc *fakeCarrier) (http.Handler, *orderstore.Memory) {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	dir := t.TempDir()
	docs, err := docstore.New(dir, "http://files.test/labels", logger)
	require.NoError(t, err)

	orders := orderstore.NewMemory()
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	orchestrator := labels.New(fc, docs, orders, logger, metrics, 2)

	srv := server.New(server.Config{Port: 8080, LabelDir: dir}, orchestrator, fc, orders, logger)
	return srv.Handler(), orders
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestServer_Health(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_PrintAll_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	req := httptest.NewRequest(http.MethodGet, "/api/labels/print-all", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_PrintAll_InvalidJSON(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	req := httptest.NewRequest(http.MethodPost, "/api/labels/print-all", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_PrintAll_Success(t *testing.T) {
	handler, orders := newTestServer(t, &fakeCarrier{})
	require.NoError(t, orders.SetAWB(context.Background(), "order-1", "AWB100"))

	body := strings.NewReader(`{"orderIds": ["order-1"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/labels/print-all", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp["success"])

	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["url"], "AWB100.pdf")
}

func TestServer_PrintAll_NotShipped(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	body := strings.NewReader(`{"orderIds": ["order-1"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/labels/print-all", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Business failures keep a 200 with success=false and a user message.
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "This order was not shipped by SMSA.", resp["data"])
}

func TestServer_GenerateLabel_Success(t *testing.T) {
	handler, orders := newTestServer(t, &fakeCarrier{})
	require.NoError(t, orders.SetAWB(context.Background(), "order-1", "AWB100"))

	body := strings.NewReader(`{"orderId": "order-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/labels/generate", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp["success"])
}

func TestServer_GenerateLabel_MissingOrderID(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	body := strings.NewReader(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/api/labels/generate", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GenerateLabel_UnknownOrder(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	body := strings.NewReader(`{"orderId": "order-404"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/labels/generate", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Please try again in a few minutes!", resp["data"])
}

func TestServer_DeleteLabel(t *testing.T) {
	handler, orders := newTestServer(t, &fakeCarrier{})
	require.NoError(t, orders.SetAWB(context.Background(), "order-1", "AWB100"))

	// Generate first, then delete what came back.
	genBody := strings.NewReader(`{"orderId": "order-1"}`)
	genReq := httptest.NewRequest(http.MethodPost, "/api/labels/generate", genBody)
	genRec := httptest.NewRecorder()
	handler.ServeHTTP(genRec, genReq)

	genResp := decodeResponse(t, genRec)
	data, ok := genResp["data"].(map[string]any)
	require.True(t, ok)

	delPayload, err := json.Marshal(map[string]string{
		"url":  data["url"].(string),
		"path": data["path"].(string),
	})
	require.NoError(t, err)

	delReq := httptest.NewRequest(http.MethodPost, "/api/labels/delete", bytes.NewReader(delPayload))
	delRec := httptest.NewRecorder()
	handler.ServeHTTP(delRec, delReq)

	assert.Equal(t, http.StatusOK, delRec.Code)
	resp := decodeResponse(t, delRec)
	assert.Equal(t, true, resp["success"])
}

func TestServer_Track_Success(t *testing.T) {
	fc := &fakeCarrier{trackEvents: []carrier.TrackingEvent{
		{Location: "Riyadh Hub", CountryCode: "KSA", Timestamp: "2026-08-27 10:00", Description: "Picked up"},
	}}
	handler, _ := newTestServer(t, fc)

	req := httptest.NewRequest(http.MethodGet, "/api/track?awb=AWB100", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp["success"])

	events, ok := resp["data"].([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	event := events[0].(map[string]any)
	assert.Equal(t, "Riyadh Hub", event["location"])
	assert.Equal(t, "Picked up", event["activity"])
}

func TestServer_Track_MissingAWB(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	req := httptest.NewRequest(http.MethodGet, "/api/track", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Track_NoEventsYet(t *testing.T) {
	fc := &fakeCarrier{trackErr: carrier.NewError("smsa", carrier.KindNotFound, "no tracking events")}
	handler, _ := newTestServer(t, fc)

	req := httptest.NewRequest(http.MethodGet, "/api/track?awb=AWB100", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Still order not picked up by SMSA.", resp["data"])
}

func TestServer_Track_AuthFailure(t *testing.T) {
	fc := &fakeCarrier{trackErr: carrier.NewError("smsa", carrier.KindAuth, "token request rejected")}
	handler, _ := newTestServer(t, fc)

	req := httptest.NewRequest(http.MethodGet, "/api/track?awb=AWB100", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Please check your SMSA account credentials.", resp["data"])
}

func TestServer_CreateShipment_RecordsAWB(t *testing.T) {
	fc := &fakeCarrier{shipment: &carrier.ShipmentResult{AWB: "290000000123", Message: "created"}}
	handler, orders := newTestServer(t, fc)

	body := strings.NewReader(`{"orderReference": "order-1", "consigneeName": "A. Customer", "city": "Riyadh", "countryCode": "KSA", "pieces": 1, "weight": 0.5}`)
	req := httptest.NewRequest(http.MethodPost, "/api/shipments", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, true, resp["success"])

	awb, err := orders.GetAWB(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "290000000123", awb)
}

func TestServer_CreateShipment_MissingReference(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{})

	body := strings.NewReader(`{"consigneeName": "A. Customer"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/shipments", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreateShipment_CarrierFailure(t *testing.T) {
	fc := &fakeCarrier{shipmentErr: carrier.NewError("smsa", carrier.KindTransport, "request failed")}
	handler, _ := newTestServer(t, fc)

	body := strings.NewReader(`{"orderReference": "order-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/shipments", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Please try again in a few minutes!", resp["data"])
}

func TestServer_ValidateCredentials(t *testing.T) {
	handler, _ := newTestServer(t, &fakeCarrier{valid: true})

	req := httptest.NewRequest(http.MethodPost, "/api/credentials/validate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
}

func TestServer_ServesArtifacts(t *testing.T) {
	handler, orders := newTestServer(t, &fakeCarrier{})
	require.NoError(t, orders.SetAWB(context.Background(), "order-1", "AWB100"))

	genBody := strings.NewReader(`{"orderId": "order-1"}`)
	genReq := httptest.NewRequest(http.MethodPost, "/api/labels/generate", genBody)
	genRec := httptest.NewRecorder()
	handler.ServeHTTP(genRec, genReq)
	require.Equal(t, http.StatusOK, genRec.Code)

	req := httptest.NewRequest(http.MethodGet, "/labels/AWB100.pdf", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "%PDF")
}
