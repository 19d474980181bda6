package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireSpaceLock(ctx context.Context, spaceID string, ttl time.Duration) (bool, error)
	ReleaseSpaceLock(ctx context.Context, spaceID string) error
}

// VerificationStoreInterface defines the interface for the exit checklist.
type VerificationStoreInterface interface {
	SetCheck(ctx context.Context, occupancyID, check string, value bool) error
	GetChecks(ctx context.Context, occupancyID string) (map[string]bool, error)
	Clear(ctx context.Context, occupancyID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface         = (*LockStore)(nil)
	_ VerificationStoreInterface = (*VerificationStore)(nil)
)
