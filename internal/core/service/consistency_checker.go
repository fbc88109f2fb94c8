package service

import (
	"context"
	"fmt"

	"github.com/trackwire/shipment-tracking/internal/core/domain"
	"github.com/trackwire/shipment-tracking/internal/core/ports"
)

// ConsistencyChecker enforces cross-entity uniqueness and state-transition
// rules against storage before any mutation. It is stateless: all state lives
// in the repository it queries.
type ConsistencyChecker struct {
	repo ports.ShipmentRepository
}

func NewConsistencyChecker(repo ports.ShipmentRepository) *ConsistencyChecker {
	return &ConsistencyChecker{repo: repo}
}

// CheckJobCreation verifies that jobID is unused and shipmentID is not bound
// to a different job. The two lookups stay separate so the failure messages
// stay distinguishable; the duplicate-job check runs first so it wins when
// both rules are violated.
func (c *ConsistencyChecker) CheckJobCreation(ctx context.Context, jobID, shipmentID string) error {
	existing, err := c.repo.FindByJobID(ctx, jobID)
	if err != nil && !domain.IsKind(err, domain.KindNotFound) {
		return fmt.Errorf("check job creation: %w", err)
	}
	if existing != nil {
		return domain.Conflictf("Job %s already exists", jobID)
	}

	bound, err := c.repo.FindByShipmentID(ctx, shipmentID)
	if err != nil && !domain.IsKind(err, domain.KindNotFound) {
		return fmt.Errorf("check job creation: %w", err)
	}
	if bound != nil && bound.JobID != jobID {
		return domain.Conflictf("Shipment %s is already associated with job %s", shipmentID, bound.JobID)
	}

	return nil
}

// CheckLocationUpdate verifies that the shipment exists and is still mutable,
// returning the current document so the caller can run the significance
// filter against the stored location.
func (c *ConsistencyChecker) CheckLocationUpdate(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	shipment, err := c.repo.FindByShipmentID(ctx, shipmentID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NotFoundf("Shipment %s not found. A job must be created first.", shipmentID)
		}
		return nil, fmt.Errorf("check location update: %w", err)
	}

	if shipment.Status.Terminal() {
		return nil, domain.Conflictf("Cannot update location for shipment in %s status", shipment.Status)
	}

	return shipment, nil
}
