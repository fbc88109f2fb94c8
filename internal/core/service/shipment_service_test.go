package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/trackwire/shipment-tracking/internal/core/domain"
	"github.com/trackwire/shipment-tracking/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubShipmentRepo struct {
	byJob      map[string]*domain.Shipment
	byShipment map[string]*domain.Shipment

	insertErr   error // if set, Insert returns this error
	findErr     error // if set, Find* return this error
	updateErr   error // if set, UpdateLocation returns this error
	insertCalls int
	updateCalls int
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{
		byJob:      make(map[string]*domain.Shipment),
		byShipment: make(map[string]*domain.Shipment),
	}
}

func (r *stubShipmentRepo) Insert(_ context.Context, s *domain.Shipment) error {
	r.insertCalls++
	if r.insertErr != nil {
		return r.insertErr
	}
	// mirrors the unique index on jobId
	if _, ok := r.byJob[s.JobID]; ok {
		return domain.Conflictf("Job or shipment already exists")
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	clone := *s
	r.byJob[s.JobID] = &clone
	r.byShipment[s.ShipmentID] = &clone
	return nil
}

func (r *stubShipmentRepo) FindByJobID(_ context.Context, jobID string) (*domain.Shipment, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	s, ok := r.byJob[jobID]
	if !ok {
		return nil, domain.NotFoundf("shipment not found")
	}
	clone := *s
	return &clone, nil
}

func (r *stubShipmentRepo) FindByShipmentID(_ context.Context, shipmentID string) (*domain.Shipment, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	s, ok := r.byShipment[shipmentID]
	if !ok {
		return nil, domain.NotFoundf("shipment not found")
	}
	clone := *s
	return &clone, nil
}

func (r *stubShipmentRepo) UpdateLocation(_ context.Context, shipmentID string, upd ports.LocationUpdate) (*domain.Shipment, error) {
	r.updateCalls++
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	s, ok := r.byShipment[shipmentID]
	if !ok {
		return nil, domain.NotFoundf("shipment not found")
	}
	s.Location = &domain.Location{Latitude: upd.Latitude, Longitude: upd.Longitude}
	if upd.Status != "" {
		s.Status = upd.Status
	}
	s.UpdatedAt = time.Now().UTC()
	clone := *s
	return &clone, nil
}

// ---------------------------------------------------------------------------
// Stub dedup checker
// ---------------------------------------------------------------------------

type stubDedup struct {
	keys     map[string]bool
	checkErr error
	marks    int
}

func newStubDedup() *stubDedup {
	return &stubDedup{keys: make(map[string]bool)}
}

func (d *stubDedup) key(shipmentID, lat, lng, status string) string {
	return fmt.Sprintf("%s:%s:%s:%s", shipmentID, lat, lng, status)
}

func (d *stubDedup) IsDuplicate(_ context.Context, shipmentID, lat, lng, status string) (bool, error) {
	if d.checkErr != nil {
		return false, d.checkErr
	}
	return d.keys[d.key(shipmentID, lat, lng, status)], nil
}

func (d *stubDedup) Mark(_ context.Context, shipmentID, lat, lng, status string) error {
	d.marks++
	d.keys[d.key(shipmentID, lat, lng, status)] = true
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func newService(repo *stubShipmentRepo) *ShipmentService {
	return NewShipmentService(repo, NewConsistencyChecker(repo), nil, discardLogger)
}

func seedJob(t *testing.T, svc *ShipmentService, jobID, shipmentID string, status domain.ShipmentStatus) *domain.Shipment {
	t.Helper()
	s, err := svc.CreateJob(context.Background(), ports.CreateJobInput{
		JobID:      jobID,
		ShipmentID: shipmentID,
		Status:     status,
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return s
}

func wantKind(t *testing.T, err error, kind domain.ErrorKind) *domain.Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.Error, got %T: %v", err, err)
	}
	if de.Kind != kind {
		t.Fatalf("expected kind %v, got %v (%s)", kind, de.Kind, de.Message)
	}
	return de
}

// ---------------------------------------------------------------------------
// CreateJob
// ---------------------------------------------------------------------------

func TestShipmentService_CreateJob_Success(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)

	s, err := svc.CreateJob(context.Background(), ports.CreateJobInput{
		JobID:      "B00001234",
		ShipmentID: "ABCD12345678",
		Status:     domain.StatusInTransit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.JobID != "B00001234" || s.ShipmentID != "ABCD12345678" {
		t.Errorf("identifiers not stored: %+v", s)
	}
	if s.Status != domain.StatusInTransit {
		t.Errorf("creator-supplied status must be kept, got %q", s.Status)
	}
	if s.Location != nil {
		t.Error("a new shipment must have no location")
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("storage must assign timestamps")
	}
}

func TestShipmentService_CreateJob_DuplicateJob(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	_, err := svc.CreateJob(context.Background(), ports.CreateJobInput{
		JobID:      "B00001234",
		ShipmentID: "WXYZ87654321",
		Status:     domain.StatusAdded,
	})
	de := wantKind(t, err, domain.KindConflict)
	if !strings.Contains(de.Message, "already exists") {
		t.Errorf("message must reference the existing job: %q", de.Message)
	}
	if repo.insertCalls != 1 {
		t.Errorf("failed pre-check must not reach storage, insert calls = %d", repo.insertCalls)
	}
}

func TestShipmentService_CreateJob_ShipmentBoundElsewhere(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001111", "ABCD12345678", domain.StatusAdded)

	_, err := svc.CreateJob(context.Background(), ports.CreateJobInput{
		JobID:      "B00002222",
		ShipmentID: "ABCD12345678",
		Status:     domain.StatusAdded,
	})
	de := wantKind(t, err, domain.KindConflict)
	if !strings.Contains(de.Message, "ABCD12345678") || !strings.Contains(de.Message, "B00001111") {
		t.Errorf("message must name the shipment and its bound job: %q", de.Message)
	}
}

func TestShipmentService_CreateJob_DuplicateJobReportedFirst(t *testing.T) {
	// when both rules fail, the duplicate-job message wins
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001111", "ABCD12345678", domain.StatusAdded)

	_, err := svc.CreateJob(context.Background(), ports.CreateJobInput{
		JobID:      "B00001111",
		ShipmentID: "ABCD12345678",
		Status:     domain.StatusAdded,
	})
	de := wantKind(t, err, domain.KindConflict)
	if de.Message != "Job B00001111 already exists" {
		t.Errorf("expected duplicate-job message, got %q", de.Message)
	}
}

func TestShipmentService_CreateJob_InsertRaceBackstop(t *testing.T) {
	repo := newStubShipmentRepo()
	repo.insertErr = domain.Conflictf("Job or shipment already exists")
	svc := newService(repo)

	_, err := svc.CreateJob(context.Background(), ports.CreateJobInput{
		JobID:      "B00001234",
		ShipmentID: "ABCD12345678",
		Status:     domain.StatusAdded,
	})
	de := wantKind(t, err, domain.KindConflict)
	if de.Message != "Job or shipment already exists" {
		t.Errorf("unexpected message: %q", de.Message)
	}
}

func TestShipmentService_CreateJob_RepoError(t *testing.T) {
	repo := newStubShipmentRepo()
	repo.insertErr = errors.New("connection reset")
	svc := newService(repo)

	_, err := svc.CreateJob(context.Background(), ports.CreateJobInput{
		JobID:      "B00001234",
		ShipmentID: "ABCD12345678",
		Status:     domain.StatusAdded,
	})
	if err == nil {
		t.Fatal("expected error when repo fails")
	}
	if domain.IsKind(err, domain.KindConflict) || domain.IsKind(err, domain.KindNotFound) {
		t.Errorf("infrastructure failure must not become a business error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateLocation
// ---------------------------------------------------------------------------

func locationInput(lat, lng string, status domain.ShipmentStatus) ports.UpdateLocationInput {
	return ports.UpdateLocationInput{
		ShipmentID: "ABCD12345678",
		Latitude:   lat,
		Longitude:  lng,
		Status:     status,
	}
}

func TestShipmentService_UpdateLocation_UnknownShipment(t *testing.T) {
	svc := newService(newStubShipmentRepo())

	_, err := svc.UpdateLocation(context.Background(), locationInput("49.0", "-122.0", ""))
	de := wantKind(t, err, domain.KindNotFound)
	if de.Message != "Shipment ABCD12345678 not found. A job must be created first." {
		t.Errorf("unexpected message: %q", de.Message)
	}
}

func TestShipmentService_UpdateLocation_TerminalStatusBlocks(t *testing.T) {
	for _, status := range []domain.ShipmentStatus{domain.StatusDelivered, domain.StatusCancelled} {
		repo := newStubShipmentRepo()
		svc := newService(repo)
		seedJob(t, svc, "B00001234", "ABCD12345678", status)

		_, err := svc.UpdateLocation(context.Background(), locationInput("49.0", "-122.0", ""))
		de := wantKind(t, err, domain.KindConflict)
		if !strings.Contains(de.Message, string(status)) {
			t.Errorf("message must name the blocking status %s: %q", status, de.Message)
		}
		if repo.updateCalls != 0 {
			t.Error("terminal shipment must not be written")
		}
	}
}

func TestShipmentService_UpdateLocation_FirstReportAlwaysWritten(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	updated, err := svc.UpdateLocation(context.Background(), locationInput("49.0041951", "-122.7322901", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Location == nil {
		t.Fatal("location must be set after first report")
	}
	if updated.Location.Latitude != "49.0041951" || updated.Location.Longitude != "-122.7322901" {
		t.Errorf("coordinates must be stored verbatim: %+v", updated.Location)
	}
	if repo.updateCalls != 1 {
		t.Errorf("expected 1 write, got %d", repo.updateCalls)
	}
}

func TestShipmentService_UpdateLocation_InsignificantMoveSkipped(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	if _, err := svc.UpdateLocation(context.Background(), locationInput("49.0041951", "-122.7322901", "")); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// a ~0.1 meter drift twice in a row: neither may overwrite the stored pair
	for i := 0; i < 2; i++ {
		current, err := svc.UpdateLocation(context.Background(), locationInput("49.0041960", "-122.7322910", ""))
		if err != nil {
			t.Fatalf("insignificant update %d: %v", i, err)
		}
		if current.Location.Latitude != "49.0041951" || current.Location.Longitude != "-122.7322901" {
			t.Errorf("stored coordinates drifted: %+v", current.Location)
		}
	}
	if repo.updateCalls != 1 {
		t.Errorf("insignificant updates must not write, got %d writes", repo.updateCalls)
	}
}

func TestShipmentService_UpdateLocation_SignificantMoveWritten(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	if _, err := svc.UpdateLocation(context.Background(), locationInput("49.0041951", "-122.7322901", "")); err != nil {
		t.Fatalf("first update: %v", err)
	}
	updated, err := svc.UpdateLocation(context.Background(), locationInput("49.1041951", "-122.8322901", ""))
	if err != nil {
		t.Fatalf("significant update: %v", err)
	}
	if updated.Location.Latitude != "49.1041951" {
		t.Errorf("significant move must be stored, got %+v", updated.Location)
	}
	if repo.updateCalls != 2 {
		t.Errorf("expected 2 writes, got %d", repo.updateCalls)
	}
}

func TestShipmentService_UpdateLocation_StatusForcesWrite(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	if _, err := svc.UpdateLocation(context.Background(), locationInput("49.0041951", "-122.7322901", "")); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// same coordinates, but a status change accompanies the report
	updated, err := svc.UpdateLocation(context.Background(), locationInput("49.0041951", "-122.7322901", domain.StatusInTransit))
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if updated.Status != domain.StatusInTransit {
		t.Errorf("status must be applied, got %q", updated.Status)
	}
	if repo.updateCalls != 2 {
		t.Errorf("status change must force a write, got %d writes", repo.updateCalls)
	}
}

func TestShipmentService_UpdateLocation_VanishedDocument(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)
	repo.updateErr = domain.NotFoundf("shipment not found")

	_, err := svc.UpdateLocation(context.Background(), locationInput("49.0", "-122.0", ""))
	de := wantKind(t, err, domain.KindInternal)
	if de.Message != "Failed to update location for shipment ABCD12345678" {
		t.Errorf("unexpected message: %q", de.Message)
	}
}

// ---------------------------------------------------------------------------
// Webhook replay dedup
// ---------------------------------------------------------------------------

func TestShipmentService_UpdateLocation_ReplaySuppressed(t *testing.T) {
	repo := newStubShipmentRepo()
	dedup := newStubDedup()
	svc := NewShipmentService(repo, NewConsistencyChecker(repo), dedup, discardLogger)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	in := locationInput("49.0041951", "-122.7322901", "")
	if _, err := svc.UpdateLocation(context.Background(), in); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if dedup.marks != 1 {
		t.Fatalf("successful write must mark the dedup key, marks = %d", dedup.marks)
	}

	if _, err := svc.UpdateLocation(context.Background(), in); err != nil {
		t.Fatalf("replayed delivery: %v", err)
	}
	if repo.updateCalls != 1 {
		t.Errorf("replayed delivery must not write, got %d writes", repo.updateCalls)
	}
}

func TestShipmentService_UpdateLocation_ReturnMoveNotSuppressed(t *testing.T) {
	// a significant move back to previously-reported coordinates must be
	// written even though the dedup store still holds a key for them
	repo := newStubShipmentRepo()
	dedup := newStubDedup()
	svc := NewShipmentService(repo, NewConsistencyChecker(repo), dedup, discardLogger)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	pointA := locationInput("49.0000000", "-122.0000000", "")
	pointB := locationInput("49.1000000", "-122.1000000", "")

	for _, in := range []ports.UpdateLocationInput{pointA, pointB} {
		if _, err := svc.UpdateLocation(context.Background(), in); err != nil {
			t.Fatalf("update to %s: %v", in.Latitude, err)
		}
	}

	updated, err := svc.UpdateLocation(context.Background(), pointA)
	if err != nil {
		t.Fatalf("return move: %v", err)
	}
	if updated.Location.Latitude != "49.0000000" || updated.Location.Longitude != "-122.0000000" {
		t.Errorf("return move must be stored, got %+v", updated.Location)
	}
	if repo.updateCalls != 3 {
		t.Errorf("return move must be written, got %d writes", repo.updateCalls)
	}
}

func TestShipmentService_UpdateLocation_ReplayStillChecksExistence(t *testing.T) {
	dedup := newStubDedup()
	dedup.keys[dedup.key("ABCD12345678", "49.0", "-122.0", "")] = true
	repo := newStubShipmentRepo()
	svc := NewShipmentService(repo, NewConsistencyChecker(repo), dedup, discardLogger)

	_, err := svc.UpdateLocation(context.Background(), locationInput("49.0", "-122.0", ""))
	wantKind(t, err, domain.KindNotFound)
}

func TestShipmentService_UpdateLocation_DedupFailureDegrades(t *testing.T) {
	repo := newStubShipmentRepo()
	dedup := newStubDedup()
	svc := NewShipmentService(repo, NewConsistencyChecker(repo), dedup, discardLogger)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	// a status-bearing payload that matches the stored state would normally
	// be suppressed as a replay; with the store down it must be processed
	in := locationInput("49.0", "-122.0", domain.StatusInTransit)
	if _, err := svc.UpdateLocation(context.Background(), in); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	dedup.checkErr = errors.New("redis down")
	if _, err := svc.UpdateLocation(context.Background(), in); err != nil {
		t.Fatalf("dedup failure must not fail the update: %v", err)
	}
	if repo.updateCalls != 2 {
		t.Errorf("update must be processed when dedup is unavailable, got %d writes", repo.updateCalls)
	}
}

// ---------------------------------------------------------------------------
// GetJobLocation
// ---------------------------------------------------------------------------

func TestShipmentService_GetJobLocation(t *testing.T) {
	repo := newStubShipmentRepo()
	svc := newService(repo)
	seedJob(t, svc, "B00001234", "ABCD12345678", domain.StatusAdded)

	s, err := svc.GetJobLocation(context.Background(), "B00001234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ShipmentID != "ABCD12345678" {
		t.Errorf("wrong shipment returned: %+v", s)
	}
}

func TestShipmentService_GetJobLocation_NotFound(t *testing.T) {
	svc := newService(newStubShipmentRepo())

	_, err := svc.GetJobLocation(context.Background(), "B99999999")
	de := wantKind(t, err, domain.KindNotFound)
	if de.Message != "Job B99999999 not found" {
		t.Errorf("unexpected message: %q", de.Message)
	}
}
