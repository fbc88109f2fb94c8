package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trackwire/shipment-tracking/internal/core/domain"
	"github.com/trackwire/shipment-tracking/internal/core/ports"
	"github.com/trackwire/shipment-tracking/internal/core/validation"
)

// WebhookHandler handles the carrier-facing webhook and query endpoints.
// Bodies are bound as raw maps so the payload validator controls the
// unknown-field policy; strict toggles rejecting unknown fields instead of
// dropping them.
type WebhookHandler struct {
	service ports.ShipmentService
	strict  bool
}

func NewWebhookHandler(service ports.ShipmentService, strict bool) *WebhookHandler {
	return &WebhookHandler{service: service, strict: strict}
}

// CreateJob handles POST /webhook/jobs.
//
// @Summary      Create a job/shipment pairing
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "Job webhook payload: {job, shipment, status}"
// @Success      201   {object}  jobWebhookResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /webhook/jobs [post]
func (h *WebhookHandler) CreateJob(c echo.Context) error {
	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}

	payload, err := validation.ParseJobPayload(raw, h.strict)
	if err != nil {
		return err
	}

	shipment, err := h.service.CreateJob(c.Request().Context(), ports.CreateJobInput{
		JobID:      payload.JobID,
		ShipmentID: payload.ShipmentID,
		Status:     domain.ShipmentStatus(payload.Status),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toJobResponse(shipment))
}

// UpdateLocation handles POST /webhook/location.
//
// @Summary      Record a GPS location update for a shipment
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]string  true  "Location webhook payload: {shipment, latitude, longitude, status?}"
// @Success      200   {object}  locationWebhookResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /webhook/location [post]
func (h *WebhookHandler) UpdateLocation(c echo.Context) error {
	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}

	payload, err := validation.ParseLocationPayload(raw, h.strict)
	if err != nil {
		return err
	}

	shipment, err := h.service.UpdateLocation(c.Request().Context(), ports.UpdateLocationInput{
		ShipmentID: payload.ShipmentID,
		Latitude:   payload.Latitude,
		Longitude:  payload.Longitude,
		Status:     domain.ShipmentStatus(payload.Status),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toLocationResponse(shipment))
}

// GetJobLocation handles GET /jobs/:jobId.
//
// @Summary      Query current status and location by job ID
// @Tags         jobs
// @Produce      json
// @Param        jobId  path      string  true  "Job ID (e.g. B00001234)"
// @Success      200    {object}  queryLocationResponse
// @Failure      400    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Failure      500    {object}  errorResponse
// @Router       /jobs/{jobId} [get]
func (h *WebhookHandler) GetJobLocation(c echo.Context) error {
	jobID, err := validation.ParseJobID(c.Param("jobId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid job ID format")
	}

	shipment, err := h.service.GetJobLocation(c.Request().Context(), jobID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toQueryResponse(shipment))
}
