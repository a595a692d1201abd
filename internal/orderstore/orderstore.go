// Package orderstore maps order references to their assigned AWB numbers.
// An order has at most one AWB, set once when its shipment is created.
package orderstore

import "context"

// Store is the AWB metadata store for orders.
type Store interface {
	// GetAWB returns the AWB for an order, or "" when the order has no
	// shipment yet.
	GetAWB(ctx context.Context, orderRef string) (string, error)

	// SetAWB records the AWB assigned to an order.
	SetAWB(ctx context.Context, orderRef, awb string) error
}
