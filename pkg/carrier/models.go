// Package carrier defines the shared types and failure taxonomy for
// shipping carrier integrations.
package carrier

// Credentials identifies a carrier account. All three fields are required
// before any token request is attempted.
type Credentials struct {
	AccountNumber string
	Username      string
	Password      string
}

// Complete reports whether every credential field is set.
func (c Credentials) Complete() bool {
	return c.AccountNumber != "" && c.Username != "" && c.Password != ""
}

// LabelPage is one base64-encoded PDF page of a shipment label. Multi-piece
// shipments expose one page per piece, each with its own sub-AWB.
type LabelPage struct {
	AWB   string
	Index int
	Data  string // base64-encoded PDF
}

// LabelSet is the ordered label payload for one shipment.
type LabelSet struct {
	AWB   string
	Pages []LabelPage
}

// TrackingEvent is one entry in a shipment's tracking history.
type TrackingEvent struct {
	Location    string
	CountryCode string
	Timestamp   string
	Description string
}

// ShipmentRequest carries the consignee details for a new B2C shipment.
type ShipmentRequest struct {
	OrderReference string  `json:"orderReference"`
	ConsigneeName  string  `json:"consigneeName"`
	Phone          string  `json:"phone"`
	AddressLine1   string  `json:"addressLine1"`
	AddressLine2   string  `json:"addressLine2,omitempty"`
	City           string  `json:"city"`
	CountryCode    string  `json:"countryCode"`
	Pieces         int     `json:"pieces"`
	Weight         float64 `json:"weight"`
	CODAmount      float64 `json:"codAmount,omitempty"`
	ContentDesc    string  `json:"contentDesc,omitempty"`
}

// ShipmentResult is the carrier's answer to a shipment creation request.
type ShipmentResult struct {
	AWB     string
	Message string
}
