package service

import "errors"

var (
	// ErrSpaceConflict is returned when a space is already taken by another actor.
	ErrSpaceConflict = errors.New("space already taken")

	// ErrSpaceUnavailable is returned when a reservation targets a space that
	// is not unoccupied.
	ErrSpaceUnavailable = errors.New("space not available for reservation")

	// ErrNoAvailability is returned when no matching space could be reserved
	// after the allocation retry budget is exhausted.
	ErrNoAvailability = errors.New("no space available")

	// ErrInvalidTransition is returned on an occupancy or space state machine violation.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrVerificationIncomplete is returned when checkout is attempted before
	// all exit checks are recorded as true.
	ErrVerificationIncomplete = errors.New("exit verification incomplete")

	// ErrAlreadyPaid is returned when paying a bill that is already paid.
	ErrAlreadyPaid = errors.New("bill already paid")

	// ErrPermissionDenied is returned when the caller's role does not allow the operation.
	ErrPermissionDenied = errors.New("operation not permitted for role")

	// ErrInvalidSpaceID is returned when space ID is empty.
	ErrInvalidSpaceID = errors.New("invalid space id")

	// ErrInvalidLotID is returned when lot ID is empty.
	ErrInvalidLotID = errors.New("invalid lot id")

	// ErrInvalidOccupancyID is returned when occupancy ID is empty.
	ErrInvalidOccupancyID = errors.New("invalid occupancy id")

	// ErrInvalidBillID is returned when bill ID is empty.
	ErrInvalidBillID = errors.New("invalid bill id")

	// ErrInvalidUserID is returned when user ID is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidVehicleClass is returned when the vehicle class is unknown.
	ErrInvalidVehicleClass = errors.New("invalid vehicle class")

	// ErrInvalidRegistration is returned when a vehicle registration is empty.
	ErrInvalidRegistration = errors.New("invalid vehicle registration")

	// ErrInvalidCheckName is returned when a verification check name is unknown.
	ErrInvalidCheckName = errors.New("unknown verification check")

	// ErrInvalidHistoryFilter is returned when a history query names neither
	// a user nor a vehicle.
	ErrInvalidHistoryFilter = errors.New("history requires user_id or vehicle_id")

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = errors.New("invalid vehicle id")

	// ErrInvalidName is returned when a required name field is empty.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidPhone is returned when a phone number is empty.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInvalidUserRole is returned when the user role is unknown.
	ErrInvalidUserRole = errors.New("invalid user role")

	// ErrPhoneExists is returned when registering a phone number that is
	// already registered.
	ErrPhoneExists = errors.New("phone number already registered")

	// ErrRegistrationExists is returned when registering a vehicle whose
	// registration number is already on file.
	ErrRegistrationExists = errors.New("vehicle registration already exists")

	// ErrInvalidBaseRate is returned when a lot's base rate is negative.
	ErrInvalidBaseRate = errors.New("invalid base rate")
)
