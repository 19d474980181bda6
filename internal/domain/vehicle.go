package domain

import "time"

// Vehicle represents a registered vehicle. OwnerID is empty for walk-ins
// that were created on the fly at check-in.
type Vehicle struct {
	ID           string
	Registration string
	OwnerID      string
	VehicleClass VehicleClass
	CreatedAt    time.Time
}
