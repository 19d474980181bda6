package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking/internal/domain"
	"parking/internal/service"
)

// VehicleHandler handles HTTP requests for vehicles.
type VehicleHandler struct {
	vehicleService *service.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleService *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// RegisterVehicleRequest is the HTTP request body for vehicle registration.
type RegisterVehicleRequest struct {
	Registration string `json:"registration"`
	OwnerID      string `json:"owner_id"`
	VehicleClass string `json:"vehicle_class"`
}

// VehicleResponse is the HTTP response for vehicle data.
type VehicleResponse struct {
	ID           string `json:"id"`
	Registration string `json:"registration"`
	OwnerID      string `json:"owner_id,omitempty"`
	VehicleClass string `json:"vehicle_class"`
}

func toVehicleResponse(vehicle *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:           vehicle.ID,
		Registration: vehicle.Registration,
		OwnerID:      vehicle.OwnerID,
		VehicleClass: string(vehicle.VehicleClass),
	}
}

// Register handles POST /v1/vehicles/register
func (h *VehicleHandler) Register(c *gin.Context) {
	var req RegisterVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.vehicleService.RegisterVehicle(c.Request.Context(), service.RegisterVehicleRequest{
		Registration: req.Registration,
		OwnerID:      req.OwnerID,
		VehicleClass: domain.VehicleClass(req.VehicleClass),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// Get handles GET /v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicleID := c.Param("id")

	vehicle, err := h.vehicleService.GetVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// List handles GET /v1/vehicles
func (h *VehicleHandler) List(c *gin.Context) {
	ownerID := c.Query("owner_id")

	vehicles, err := h.vehicleService.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, toVehicleResponse(v))
	}

	respondJSON(c, http.StatusOK, response)
}
