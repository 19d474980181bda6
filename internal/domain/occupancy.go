package domain

import "time"

// OccupancyStatus represents the current status of an occupancy.
type OccupancyStatus string

const (
	OccupancyStatusReserved  OccupancyStatus = "RESERVED"
	OccupancyStatusActive    OccupancyStatus = "ACTIVE"
	OccupancyStatusCompleted OccupancyStatus = "COMPLETED"
	OccupancyStatusCancelled OccupancyStatus = "CANCELLED"
)

// Occupancy represents one vehicle's stay in one space, from reservation
// to completion. VehicleID is empty until check-in. EntryTime is set at
// check-in, ExitTime exactly once at check-out.
type Occupancy struct {
	ID        string
	SpaceID   string
	UserID    string
	VehicleID string
	Status    OccupancyStatus
	EntryTime time.Time
	ExitTime  time.Time
	CreatedAt time.Time
}
