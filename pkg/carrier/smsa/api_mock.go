package smsa

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moshipping/labelbridge/pkg/carrier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetToken       func(ctx context.Context, creds carrier.Credentials) (string, error)
	OnQueryByAWB     func(ctx context.Context, token, awb string) (*QueryResponse, error)
	OnTrack          func(ctx context.Context, token, awb, language string) (*TrackResponse, error)
	OnCreateShipment func(ctx context.Context, token string, req *carrier.ShipmentRequest) (*ShipmentResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// GetToken returns a mock bearer token.
func (m *MockAPIClient) GetToken(ctx context.Context, creds carrier.Credentials) (string, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return "", &APIError{Code: "MOCK_ERROR", Description: "Simulated API error", StatusCode: 401}
	}

	if m.OnGetToken != nil {
		return m.OnGetToken(ctx, creds)
	}

	return "smsa-token-" + uuid.New().String()[:8], nil
}

// QueryByAWB returns a mock single-piece label payload.
func (m *MockAPIClient) QueryByAWB(ctx context.Context, token, awb string) (*QueryResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error", StatusCode: 500}
	}

	if m.OnQueryByAWB != nil {
		return m.OnQueryByAWB(ctx, token, awb)
	}

	label := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 mock label data"))
	return &QueryResponse{
		Waybills: []Waybill{
			{AWB: awb, Label: label},
		},
	}, nil
}

// Track returns mock tracking events.
func (m *MockAPIClient) Track(ctx context.Context, token, awb, language string) (*TrackResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error", StatusCode: 500}
	}

	if m.OnTrack != nil {
		return m.OnTrack(ctx, token, awb, language)
	}

	now := time.Now()
	return &TrackResponse{
		TrackingDetailsList: []TrackingDetail{
			{
				Office:      "Riyadh Hub",
				CountryCode: "KSA",
				EventTime:   now.Add(-48 * time.Hour).Format("2006-01-02 15:04"),
				EventDesc:   "Shipment picked up",
			},
			{
				Office:      "Jeddah Hub",
				CountryCode: "KSA",
				EventTime:   now.Add(-24 * time.Hour).Format("2006-01-02 15:04"),
				EventDesc:   "Shipment in transit",
			},
		},
	}, nil
}

// CreateShipment returns a mock AWB assignment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, token string, req *carrier.ShipmentRequest) (*ShipmentResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error", StatusCode: 500}
	}

	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, token, req)
	}

	awb := fmt.Sprintf("%d", 290000000000+time.Now().UnixNano()%9999999)
	return &ShipmentResponse{AWB: awb, Message: "Shipment created"}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
