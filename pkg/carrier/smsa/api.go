package smsa

import (
	"context"

	"github.com/moshipping/labelbridge/pkg/carrier"
)

// APIClient defines the interface for SMSA OpenAPI operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetToken exchanges account credentials for a short-lived bearer token
	GetToken(ctx context.Context, creds carrier.Credentials) (string, error)

	// QueryByAWB retrieves the waybill label payloads for an AWB
	QueryByAWB(ctx context.Context, token, awb string) (*QueryResponse, error)

	// Track retrieves the tracking event list for an AWB
	Track(ctx context.Context, token, awb, language string) (*TrackResponse, error)

	// CreateShipment registers a new B2C shipment
	CreateShipment(ctx context.Context, token string, req *carrier.ShipmentRequest) (*ShipmentResponse, error)
}

// ============================================================================
// API Request/Response Types (match the SMSA OpenAPI JSON structure)
// ============================================================================

// tokenRequest is the JSON body for POST /Token.
type tokenRequest struct {
	AccountNumber string `json:"accountNumber"`
	Username      string `json:"username"`
	Password      string `json:"password"`
}

// tokenResponse is the JSON answer from POST /Token.
type tokenResponse struct {
	Token string `json:"token"`
}

// QueryResponse is the JSON answer from GET /Shipment/QueryB2CByAwb.
// Waybills holds one entry per shipment piece, in piece order.
type QueryResponse struct {
	Waybills []Waybill `json:"waybills"`
}

// Waybill is one label payload. Label is a base64-encoded PDF page.
// Pieces of a multi-piece shipment carry their own sub-AWB.
type Waybill struct {
	AWB       string `json:"awb"`
	Label     string `json:"label"`
	Reference string `json:"reference,omitempty"`
}

// TrackResponse is the JSON answer from GET /Shipment/Track.
type TrackResponse struct {
	TrackingDetailsList []TrackingDetail `json:"trackingDetailsList"`
}

// TrackingDetail is a single tracking event as reported by SMSA.
type TrackingDetail struct {
	Office      string `json:"office"`
	CountryCode string `json:"countryCode"`
	EventTime   string `json:"eventTime"`
	EventDesc   string `json:"eventDesc"`
}

// ShipmentResponse is the JSON answer from POST /Shipment/B2CNewShipment.
type ShipmentResponse struct {
	AWB     string `json:"sawb"`
	Message string `json:"message,omitempty"`
}

// APIError represents an error answer from the SMSA OpenAPI.
type APIError struct {
	Code        string
	Description string
	StatusCode  int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}
