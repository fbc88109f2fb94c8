package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trackwire/shipment-tracking/internal/core/domain"
	"github.com/trackwire/shipment-tracking/internal/core/ports"
)

const collectionShipments = "shipments"

// ShipmentRepository implements ports.ShipmentRepository over the shipments
// collection. createdAt/updatedAt are maintained here so callers never touch
// timestamps.
type ShipmentRepository struct {
	col *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments)}
}

// Insert stores a new shipment document, assigning both timestamps. A unique
// index violation on jobId surfaces as a conflict so the service can treat
// the lost race exactly like its pre-check would have.
func (r *ShipmentRepository) Insert(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflictf("Job or shipment already exists")
		}
		return err
	}
	return nil
}

func (r *ShipmentRepository) FindByJobID(ctx context.Context, jobID string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"jobId": jobID})
}

func (r *ShipmentRepository) FindByShipmentID(ctx context.Context, shipmentID string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"shipmentId": shipmentID})
}

func (r *ShipmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Shipment
	err := r.col.FindOne(ctx, filter).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFoundf("shipment not found")
		}
		return nil, err
	}
	return &s, nil
}

// UpdateLocation sets the location fields (and status, when requested) on the
// document matching shipmentID and returns the updated document. A missing
// document surfaces as not-found; the service decides what that means
// mid-update.
func (r *ShipmentRepository) UpdateLocation(ctx context.Context, shipmentID string, upd ports.LocationUpdate) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"location.latitude":  upd.Latitude,
		"location.longitude": upd.Longitude,
		"updatedAt":          time.Now().UTC(),
	}
	if upd.Status != "" {
		set["status"] = string(upd.Status)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s domain.Shipment
	err := r.col.FindOneAndUpdate(ctx, bson.M{"shipmentId": shipmentID}, bson.M{"$set": set}, opts).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFoundf("shipment not found")
		}
		return nil, err
	}
	return &s, nil
}

// EnsureIndexes creates the indexes the consistency rules rely on: the unique
// index on jobId is the storage-level backstop for concurrent creates.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "jobId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "shipmentId", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
