package domain

import (
	"strconv"
	"time"
)

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusAdded     ShipmentStatus = "ADDED"
	StatusInTransit ShipmentStatus = "IN_TRANSIT"
	StatusDelivered ShipmentStatus = "DELIVERED"
	StatusCancelled ShipmentStatus = "CANCELLED"
)

// Statuses lists every valid shipment status, in lifecycle order.
var Statuses = []ShipmentStatus{StatusAdded, StatusInTransit, StatusDelivered, StatusCancelled}

// Valid reports whether s is one of the four known statuses (case-sensitive).
func (s ShipmentStatus) Valid() bool {
	switch s {
	case StatusAdded, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s blocks further location mutation and any status
// change to a different value.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Location is a pair of decimal-degree coordinates. Values are kept as the
// strings the carrier sent so precision survives storage round trips.
type Location struct {
	Latitude  string `json:"latitude" bson:"latitude"`
	Longitude string `json:"longitude" bson:"longitude"`
}

// Shipment is the sole persistent entity: one document per job, holding the
// shipment binding, current status, and the latest reported location.
type Shipment struct {
	ID         string         `json:"-" bson:"_id,omitempty"`
	JobID      string         `json:"jobId" bson:"jobId"`
	ShipmentID string         `json:"shipmentId" bson:"shipmentId"`
	Status     ShipmentStatus `json:"status" bson:"status"`
	Location   *Location      `json:"location,omitempty" bson:"location,omitempty"`
	CreatedAt  time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// significanceThreshold is the angular delta above which a coordinate change
// is persisted: roughly 11 meters of latitude at the equator. The longitude
// threshold is the same flat angle, not corrected by cosine of latitude.
const significanceThreshold = 0.0001

// IsSignificantMove reports whether the new coordinate pair differs enough
// from the stored location to warrant a write. A nil old location is always
// significant (first report). Inputs are already-validated coordinate
// strings; a malformed stored value is treated as significant rather than
// silently dropped.
func IsSignificantMove(old *Location, latitude, longitude string) bool {
	if old == nil {
		return true
	}

	oldLat, err1 := strconv.ParseFloat(old.Latitude, 64)
	oldLng, err2 := strconv.ParseFloat(old.Longitude, 64)
	newLat, err3 := strconv.ParseFloat(latitude, 64)
	newLng, err4 := strconv.ParseFloat(longitude, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return true
	}

	return abs(oldLat-newLat) > significanceThreshold || abs(oldLng-newLng) > significanceThreshold
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
