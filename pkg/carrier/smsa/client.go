// Package smsa provides integration with the SMSA Express OpenAPI.
package smsa

import (
	"context"
	"errors"
	"time"

	"github.com/moshipping/labelbridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "smsa"

// DefaultLanguage is used for tracking queries when no language is given.
const DefaultLanguage = "EN"

// Config holds SMSA configuration.
type Config struct {
	AccountNumber string
	Username      string
	Password      string
	BaseURL       string
	UseMock       bool
}

// Client is the SMSA carrier client. Every operation re-authenticates
// against the token endpoint; tokens are never cached or persisted, so
// credential rotation takes effect on the next call.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new SMSA client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: 30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new SMSA client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

func (c *Client) credentials() carrier.Credentials {
	return carrier.Credentials{
		AccountNumber: c.config.AccountNumber,
		Username:      c.config.Username,
		Password:      c.config.Password,
	}
}

// Authenticate obtains a bearer token for the configured account.
// Incomplete credentials fail immediately without a network call.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	creds := c.credentials()
	if !creds.Complete() {
		return "", carrier.NewError(carrierName, carrier.KindAuth, "account number, username or password not configured").
			WithCause(carrier.ErrMissingCredentials)
	}

	token, err := c.apiClient.GetToken(ctx, creds)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			// Log status and body for diagnosis; credentials stay out of the log.
			c.logger.Error("SMSA token request rejected",
				zap.String("code", apiErr.Code),
				zap.Int("status", apiErr.StatusCode),
				zap.String("body", apiErr.Description),
			)
			return "", carrier.NewError(carrierName, carrier.KindAuth, "token request rejected").
				WithStatusCode(apiErr.StatusCode).
				WithCause(err)
		}

		c.logger.Error("SMSA token request failed", zap.Error(err))
		return "", carrier.NewError(carrierName, carrier.KindTransport, "token request failed").
			WithCause(err)
	}

	return token, nil
}

// ValidateCredentials reports whether authentication round-trips to a
// non-empty token. Used to gate configuration save.
func (c *Client) ValidateCredentials(ctx context.Context) bool {
	token, err := c.Authenticate(ctx)
	if err != nil {
		c.logger.Warn("SMSA credential validation failed", zap.Error(err))
		return false
	}
	return token != ""
}

// FetchLabel retrieves the ordered label pages for an AWB. The carrier's
// waybill list is returned as-is; an empty list is reported as not found.
func (c *Client) FetchLabel(ctx context.Context, awb string) (*carrier.LabelSet, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetching SMSA label", zap.String("awb", awb))

	resp, err := c.apiClient.QueryByAWB(ctx, token, awb)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("SMSA label query rejected",
				zap.String("awb", awb),
				zap.String("code", apiErr.Code),
				zap.Int("status", apiErr.StatusCode),
			)
			return nil, carrier.NewError(carrierName, carrier.KindTransport, "label query rejected").
				WithStatusCode(apiErr.StatusCode).
				WithCause(err)
		}

		c.logger.Error("SMSA label query failed", zap.String("awb", awb), zap.Error(err))
		return nil, carrier.NewError(carrierName, carrier.KindTransport, "label query failed").
			WithCause(err)
	}

	if len(resp.Waybills) == 0 || resp.Waybills[0].Label == "" {
		return nil, carrier.NewError(carrierName, carrier.KindNotFound, "no label payload for "+awb).
			WithCause(carrier.ErrNoWaybills)
	}

	set := &carrier.LabelSet{AWB: awb, Pages: make([]carrier.LabelPage, 0, len(resp.Waybills))}
	for i, wb := range resp.Waybills {
		pageAWB := wb.AWB
		if pageAWB == "" {
			pageAWB = awb
		}
		set.Pages = append(set.Pages, carrier.LabelPage{
			AWB:   pageAWB,
			Index: i,
			Data:  wb.Label,
		})
	}

	return set, nil
}

// Track retrieves the tracking event list for an AWB.
func (c *Client) Track(ctx context.Context, awb, language string) ([]carrier.TrackingEvent, error) {
	if language == "" {
		language = DefaultLanguage
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.apiClient.Track(ctx, token, awb, language)
	if err != nil {
		c.logger.Error("SMSA tracking query failed", zap.String("awb", awb), zap.Error(err))
		return nil, carrier.NewError(carrierName, carrier.KindTransport, "tracking query failed").
			WithCause(err)
	}

	if len(resp.TrackingDetailsList) == 0 {
		return nil, carrier.NewError(carrierName, carrier.KindNotFound, "no tracking events for "+awb).
			WithCause(carrier.ErrNoTrackingList)
	}

	events := make([]carrier.TrackingEvent, len(resp.TrackingDetailsList))
	for i, d := range resp.TrackingDetailsList {
		events[i] = carrier.TrackingEvent{
			Location:    d.Office,
			CountryCode: d.CountryCode,
			Timestamp:   d.EventTime,
			Description: d.EventDesc,
		}
	}

	return events, nil
}

// CreateShipment registers a new B2C shipment and returns the assigned AWB.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Creating SMSA shipment",
		zap.String("order_reference", req.OrderReference),
		zap.String("city", req.City),
	)

	resp, err := c.apiClient.CreateShipment(ctx, token, req)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("SMSA shipment creation rejected",
				zap.String("code", apiErr.Code),
				zap.Int("status", apiErr.StatusCode),
			)
			return nil, carrier.NewError(carrierName, carrier.KindTransport, "shipment creation rejected").
				WithStatusCode(apiErr.StatusCode).
				WithCause(err)
		}
		return nil, carrier.NewError(carrierName, carrier.KindTransport, "shipment creation failed").
			WithCause(err)
	}

	return &carrier.ShipmentResult{AWB: resp.AWB, Message: resp.Message}, nil
}
