package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/trackwire/shipment-tracking/internal/api/metrics"
	"github.com/trackwire/shipment-tracking/internal/core/domain"
	"github.com/trackwire/shipment-tracking/internal/core/ports"
)

// DedupChecker abstracts the webhook replay store (Redis). A nil checker
// disables replay suppression entirely.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, shipmentID, latitude, longitude, status string) (bool, error)
	Mark(ctx context.Context, shipmentID, latitude, longitude, status string) error
}

// ShipmentService orchestrates the three webhook operations: create job,
// update location, query by job. Validation happens at the boundary before
// inputs reach this service; consistency checks and the significance filter
// run here.
type ShipmentService struct {
	repo    ports.ShipmentRepository
	checker *ConsistencyChecker
	dedup   DedupChecker
	logger  zerolog.Logger
}

func NewShipmentService(repo ports.ShipmentRepository, checker *ConsistencyChecker, dedup DedupChecker, logger zerolog.Logger) *ShipmentService {
	return &ShipmentService{repo: repo, checker: checker, dedup: dedup, logger: logger}
}

// CreateJob inserts a new job/shipment pairing. The pre-insert consistency
// check produces the distinguishable conflict messages; the unique index on
// jobId backstops the remaining race window, surfacing as the same conflict
// kind.
func (s *ShipmentService) CreateJob(ctx context.Context, input ports.CreateJobInput) (*domain.Shipment, error) {
	if err := s.checker.CheckJobCreation(ctx, input.JobID, input.ShipmentID); err != nil {
		return nil, err
	}

	shipment := &domain.Shipment{
		JobID:      input.JobID,
		ShipmentID: input.ShipmentID,
		Status:     input.Status,
	}

	if err := s.repo.Insert(ctx, shipment); err != nil {
		s.logger.Error().Err(err).Str("job_id", input.JobID).Msg("failed to create job")
		return nil, err
	}

	metrics.JobsCreatedTotal.WithLabelValues(string(shipment.Status)).Inc()
	s.logger.Info().
		Str("job_id", shipment.JobID).
		Str("shipment_id", shipment.ShipmentID).
		Str("status", string(shipment.Status)).
		Msg("job created")

	return shipment, nil
}

// UpdateLocation records a GPS report for a shipment. Insignificant moves
// without a status change are skipped without a write; replayed webhook
// deliveries are short-circuited via the dedup store when one is configured.
func (s *ShipmentService) UpdateLocation(ctx context.Context, input ports.UpdateLocationInput) (*domain.Shipment, error) {
	shipment, err := s.checker.CheckLocationUpdate(ctx, input.ShipmentID)
	if err != nil {
		return nil, err
	}

	if s.isReplay(ctx, shipment, input) {
		metrics.LocationUpdatesTotal.WithLabelValues("replay").Inc()
		s.logger.Debug().Str("shipment_id", input.ShipmentID).Msg("duplicate webhook delivery skipped")
		return shipment, nil
	}

	if !domain.IsSignificantMove(shipment.Location, input.Latitude, input.Longitude) && input.Status == "" {
		metrics.LocationUpdatesTotal.WithLabelValues("skipped").Inc()
		s.logger.Info().Str("shipment_id", input.ShipmentID).Msg("location update skipped - no significant change")
		return shipment, nil
	}

	upd := ports.LocationUpdate{
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}
	if input.Status != "" {
		if shipment.Status.Terminal() && input.Status != shipment.Status {
			return nil, domain.Conflictf("Cannot change status of shipment in %s status", shipment.Status)
		}
		upd.Status = input.Status
		s.logger.Info().
			Str("shipment_id", input.ShipmentID).
			Str("from", string(shipment.Status)).
			Str("to", string(input.Status)).
			Msg("updating shipment status")
	}

	updated, err := s.repo.UpdateLocation(ctx, input.ShipmentID, upd)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			// document vanished between check and write
			return nil, domain.Internalf("Failed to update location for shipment %s", input.ShipmentID)
		}
		s.logger.Error().Err(err).Str("shipment_id", input.ShipmentID).Msg("location update failed")
		return nil, err
	}

	s.markProcessed(ctx, input)

	metrics.LocationUpdatesTotal.WithLabelValues("applied").Inc()
	s.logger.Info().
		Str("shipment_id", updated.ShipmentID).
		Str("latitude", input.Latitude).
		Str("longitude", input.Longitude).
		Msg("location updated")

	return updated, nil
}

// GetJobLocation returns the shipment bound to jobID, or a not-found error
// the boundary maps to a 404.
func (s *ShipmentService) GetJobLocation(ctx context.Context, jobID string) (*domain.Shipment, error) {
	shipment, err := s.repo.FindByJobID(ctx, jobID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NotFoundf("Job %s not found", jobID)
		}
		return nil, fmt.Errorf("get job location: %w", err)
	}
	return shipment, nil
}

// isReplay reports whether this delivery repeats one already applied. A
// dedup hit alone is not enough: the payload must also match the shipment's
// current stored state, otherwise a genuine move back to earlier coordinates
// would be swallowed by a stale key. Failures degrade to processing the
// update.
func (s *ShipmentService) isReplay(ctx context.Context, shipment *domain.Shipment, input ports.UpdateLocationInput) bool {
	if s.dedup == nil {
		return false
	}
	if !matchesCurrentState(shipment, input) {
		return false
	}
	isDup, err := s.dedup.IsDuplicate(ctx, input.ShipmentID, input.Latitude, input.Longitude, string(input.Status))
	if err != nil {
		s.logger.Warn().Err(err).Str("shipment_id", input.ShipmentID).Msg("dedup check failed, processing anyway")
		return false
	}
	return isDup
}

// matchesCurrentState reports whether applying input would leave the
// shipment unchanged: same coordinates as stored and no status transition.
func matchesCurrentState(shipment *domain.Shipment, input ports.UpdateLocationInput) bool {
	if shipment.Location == nil {
		return false
	}
	if shipment.Location.Latitude != input.Latitude || shipment.Location.Longitude != input.Longitude {
		return false
	}
	return input.Status == "" || input.Status == shipment.Status
}

func (s *ShipmentService) markProcessed(ctx context.Context, input ports.UpdateLocationInput) {
	if s.dedup == nil {
		return
	}
	if err := s.dedup.Mark(ctx, input.ShipmentID, input.Latitude, input.Longitude, string(input.Status)); err != nil {
		s.logger.Warn().Err(err).Str("shipment_id", input.ShipmentID).Msg("failed to set dedup key")
	}
}
