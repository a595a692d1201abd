// Package server exposes the label pipeline as a small JSON admin API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/moshipping/labelbridge/internal/labels"
	"github.com/moshipping/labelbridge/internal/orderstore"
	"github.com/moshipping/labelbridge/pkg/carrier"
)

// CarrierClient is the carrier-side surface the server needs beyond the
// label orchestrator.
type CarrierClient interface {
	Track(ctx context.Context, awb, language string) ([]carrier.TrackingEvent, error)
	ValidateCredentials(ctx context.Context) bool
	CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error)
}

// Server is the HTTP server for the label bridge.
type Server struct {
	port         int
	labelDir     string
	orchestrator *labels.Orchestrator
	client       CarrierClient
	orders       orderstore.Store
	logger       *otelzap.Logger
}

// Config holds server configuration.
type Config struct {
	Port     int
	LabelDir string
}

// New creates a new server instance.
func New(cfg Config, orchestrator *labels.Orchestrator, client CarrierClient, orders orderstore.Store, logger *otelzap.Logger) *Server {
	return &Server{
		port:         cfg.Port,
		labelDir:     cfg.LabelDir,
		orchestrator: orchestrator,
		client:       client,
		orders:       orders,
		logger:       logger,
	}
}

// Handler builds the route table of the admin API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Label pipeline actions
	mux.HandleFunc("/api/labels/print-all", s.handlePrintAll)
	mux.HandleFunc("/api/labels/generate", s.handleGenerateLabel)
	mux.HandleFunc("/api/labels/delete", s.handleDeleteLabel)
	mux.HandleFunc("/api/track", s.handleTrack)
	mux.HandleFunc("/api/shipments", s.handleCreateShipment)
	mux.HandleFunc("/api/credentials/validate", s.handleValidateCredentials)

	// Generated artifacts are retrievable under /labels/.
	mux.Handle("/labels/", http.StripPrefix("/labels/", http.FileServer(http.Dir(s.labelDir))))

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // batch runs block on carrier round-trips
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// apiResponse mirrors the success/error envelope of the admin actions.
type apiResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, apiResponse{Success: false, Data: msg})
}

type printAllRequest struct {
	OrderIDs []string `json:"orderIds"`
}

func (s *Server) handlePrintAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Data: "use POST"})
		return
	}

	var req printAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Data: "invalid JSON body"})
		return
	}

	result, err := s.orchestrator.PrintAll(r.Context(), req.OrderIDs)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: result})
}

type generateLabelRequest struct {
	OrderID string `json:"orderId"`
}

func (s *Server) handleGenerateLabel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Data: "use POST"})
		return
	}

	var req generateLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Data: "orderId is required"})
		return
	}

	result, err := s.orchestrator.GenerateLabel(r.Context(), req.OrderID)
	if err != nil {
		writeError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: result})
}

type deleteLabelRequest struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

func (s *Server) handleDeleteLabel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Data: "use POST"})
		return
	}

	var req deleteLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Data: "invalid JSON body"})
		return
	}

	s.orchestrator.DeleteArtifact(req.URL, req.Path)
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

type trackEvent struct {
	Location    string `json:"location"`
	CountryCode string `json:"countryCode"`
	Time        string `json:"time"`
	Activity    string `json:"activity"`
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Data: "use GET"})
		return
	}

	awb := r.URL.Query().Get("awb")
	if awb == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Data: "awb is required"})
		return
	}

	events, err := s.client.Track(r.Context(), awb, r.URL.Query().Get("language"))
	if err != nil {
		if carrier.KindOf(err) == carrier.KindNotFound {
			writeError(w, "Still order not picked up by SMSA.")
			return
		}
		writeError(w, "Please check your SMSA account credentials.")
		return
	}

	out := make([]trackEvent, len(events))
	for i, e := range events {
		out[i] = trackEvent{
			Location:    e.Location,
			CountryCode: e.CountryCode,
			Time:        e.Timestamp,
			Activity:    e.Description,
		}
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: out})
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Data: "use POST"})
		return
	}

	var req carrier.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderReference == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Data: "orderReference is required"})
		return
	}

	result, err := s.client.CreateShipment(r.Context(), &req)
	if err != nil {
		s.logger.Warn("Shipment creation failed", zap.String("order", req.OrderReference), zap.Error(err))
		writeError(w, "Please try again in a few minutes!")
		return
	}

	if err := s.orders.SetAWB(r.Context(), req.OrderReference, result.AWB); err != nil {
		s.logger.Error("Failed to record AWB",
			zap.String("order", req.OrderReference),
			zap.String("awb", result.AWB),
			zap.Error(err),
		)
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: map[string]string{
		"awb":     result.AWB,
		"message": result.Message,
	}})
}

func (s *Server) handleValidateCredentials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Data: "use POST"})
		return
	}

	valid := s.client.ValidateCredentials(r.Context())
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: map[string]bool{"valid": valid}})
}
