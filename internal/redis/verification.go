package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Exit verification check names. An occupancy may not check out until an
// operator has recorded all four as true.
const (
	CheckSpotCorrect      = "spot_correct"
	CheckVehicleCondition = "vehicle_condition"
	CheckNoDamage         = "no_damage"
	CheckBillingConfirmed = "billing_confirmed"
)

// AllChecks lists every check required before checkout.
var AllChecks = []string{
	CheckSpotCorrect,
	CheckVehicleCondition,
	CheckNoDamage,
	CheckBillingConfirmed,
}

// verificationTTL bounds how long an abandoned checklist lingers.
const verificationTTL = 24 * time.Hour

// VerificationStore holds the per-occupancy exit checklist in a Redis hash.
// The checklist is authoritative server state; it is discarded at checkout
// or cancellation.
type VerificationStore struct {
	client *redis.Client
}

// NewVerificationStore creates a new VerificationStore.
func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client}
}

func verificationKey(occupancyID string) string {
	return fmt.Sprintf("verify:occupancy:%s", occupancyID)
}

// SetCheck records one checklist condition for an occupancy.
func (s *VerificationStore) SetCheck(ctx context.Context, occupancyID, check string, value bool) error {
	key := verificationKey(occupancyID)

	v := "0"
	if value {
		v = "1"
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, check, v)
	pipe.Expire(ctx, key, verificationTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetChecks retrieves the recorded checklist for an occupancy. Conditions
// never recorded are absent from the map.
func (s *VerificationStore) GetChecks(ctx context.Context, occupancyID string) (map[string]bool, error) {
	fields, err := s.client.HGetAll(ctx, verificationKey(occupancyID)).Result()
	if err != nil {
		return nil, err
	}

	checks := make(map[string]bool, len(fields))
	for name, v := range fields {
		checks[name] = v == "1"
	}
	return checks, nil
}

// Clear discards the checklist for an occupancy.
func (s *VerificationStore) Clear(ctx context.Context, occupancyID string) error {
	return s.client.Del(ctx, verificationKey(occupancyID)).Err()
}
