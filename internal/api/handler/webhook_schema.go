package handler

import "time"

// errorResponse documents the error envelope for swagger; the actual
// rendering happens in the central HTTP error handler.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// --- Response types ---

type locationResponse struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type jobData struct {
	JobID      string    `json:"jobId"`
	ShipmentID string    `json:"shipmentId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type jobWebhookResponse struct {
	Message string  `json:"message"`
	Data    jobData `json:"data"`
}

type locationData struct {
	ShipmentID string            `json:"shipmentId"`
	JobID      string            `json:"jobId"`
	Location   *locationResponse `json:"location,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type locationWebhookResponse struct {
	Message string       `json:"message"`
	Data    locationData `json:"data"`
}

// queryLocationResponse is the flat query view. Latitude and longitude are
// omitted entirely (not nulled) while the shipment has never reported a
// location.
type queryLocationResponse struct {
	Job       string    `json:"job"`
	Shipment  string    `json:"shipment"`
	Status    string    `json:"status"`
	Latitude  string    `json:"latitude,omitempty"`
	Longitude string    `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
