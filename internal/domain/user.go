package domain

import "time"

// UserRole represents the role of a user.
type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleStaff    UserRole = "STAFF"
	UserRoleCustomer UserRole = "CUSTOMER"
)

// User represents a customer or operator in the system.
type User struct {
	ID        string
	Name      string
	Phone     string
	Role      UserRole
	CreatedAt time.Time
}
