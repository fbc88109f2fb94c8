package ports

import (
	"context"

	"github.com/trackwire/shipment-tracking/internal/core/domain"
)

// CreateJobInput carries the validated fields of a job webhook.
type CreateJobInput struct {
	JobID      string
	ShipmentID string
	Status     domain.ShipmentStatus
}

// UpdateLocationInput carries the validated fields of a location webhook.
// Status is optional; empty means no status change requested.
type UpdateLocationInput struct {
	ShipmentID string
	Latitude   string
	Longitude  string
	Status     domain.ShipmentStatus
}

// ShipmentService defines the use-case operations composed from validation,
// consistency checks, the significance filter, and storage mutation.
type ShipmentService interface {
	CreateJob(ctx context.Context, input CreateJobInput) (*domain.Shipment, error)
	UpdateLocation(ctx context.Context, input UpdateLocationInput) (*domain.Shipment, error)
	GetJobLocation(ctx context.Context, jobID string) (*domain.Shipment, error)
}
