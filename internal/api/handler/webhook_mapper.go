package handler

import (
	"github.com/trackwire/shipment-tracking/internal/core/domain"
)

// --- Service result → HTTP response ---

func toJobResponse(s *domain.Shipment) jobWebhookResponse {
	return jobWebhookResponse{
		Message: "Job created successfully",
		Data: jobData{
			JobID:      s.JobID,
			ShipmentID: s.ShipmentID,
			Status:     string(s.Status),
			CreatedAt:  s.CreatedAt.UTC(),
			UpdatedAt:  s.UpdatedAt.UTC(),
		},
	}
}

func toLocationResponse(s *domain.Shipment) locationWebhookResponse {
	resp := locationWebhookResponse{
		Message: "Location updated successfully",
		Data: locationData{
			ShipmentID: s.ShipmentID,
			JobID:      s.JobID,
			Status:     string(s.Status),
			CreatedAt:  s.CreatedAt.UTC(),
			UpdatedAt:  s.UpdatedAt.UTC(),
		},
	}
	if s.Location != nil {
		resp.Data.Location = &locationResponse{
			Latitude:  s.Location.Latitude,
			Longitude: s.Location.Longitude,
		}
	}
	return resp
}

func toQueryResponse(s *domain.Shipment) queryLocationResponse {
	resp := queryLocationResponse{
		Job:       s.JobID,
		Shipment:  s.ShipmentID,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
	if s.Location != nil {
		resp.Latitude = s.Location.Latitude
		resp.Longitude = s.Location.Longitude
	}
	return resp
}
