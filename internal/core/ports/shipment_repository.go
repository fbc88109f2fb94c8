package ports

import (
	"context"

	"github.com/trackwire/shipment-tracking/internal/core/domain"
)

// LocationUpdate is the field set applied to a shipment document. Latitude
// and Longitude are always written; Status is written only when non-empty.
type LocationUpdate struct {
	Latitude  string
	Longitude string
	Status    domain.ShipmentStatus
}

// ShipmentRepository defines persistence operations over the shipments
// collection. Find methods return a KindNotFound domain error when no
// document matches; Insert returns a KindConflict domain error when the
// unique index on jobId rejects the document.
type ShipmentRepository interface {
	Insert(ctx context.Context, s *domain.Shipment) error
	FindByJobID(ctx context.Context, jobID string) (*domain.Shipment, error)
	FindByShipmentID(ctx context.Context, shipmentID string) (*domain.Shipment, error)
	// UpdateLocation applies upd to the document matching shipmentID and
	// returns the updated document.
	UpdateLocation(ctx context.Context, shipmentID string, upd LocationUpdate) (*domain.Shipment, error)
}
