package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"parking/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationReservationConfirmed NotificationType = "RESERVATION_CONFIRMED"
	NotificationReservationCancelled NotificationType = "RESERVATION_CANCELLED"
	NotificationReservationExpired   NotificationType = "RESERVATION_EXPIRED"
	NotificationCheckedIn            NotificationType = "CHECKED_IN"
	NotificationCheckedOut           NotificationType = "CHECKED_OUT"
	NotificationBillPaid             NotificationType = "BILL_PAID"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - Email client (SendGrid)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyReservationConfirmed notifies the user that a space is held for them.
func (s *NotificationService) NotifyReservationConfirmed(ctx context.Context, occ *domain.Occupancy) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationConfirmed,
		RecipientID: occ.UserID,
		Title:       "Space Reserved",
		Message:     fmt.Sprintf("Space %s is reserved for you", occ.SpaceID),
		Data: map[string]interface{}{
			"occupancy_id": occ.ID,
			"space_id":     occ.SpaceID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReservationCancelled notifies the user that a reservation was abandoned.
func (s *NotificationService) NotifyReservationCancelled(ctx context.Context, occ *domain.Occupancy) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationCancelled,
		RecipientID: occ.UserID,
		Title:       "Reservation Cancelled",
		Message:     fmt.Sprintf("Your reservation for space %s was cancelled", occ.SpaceID),
		Data: map[string]interface{}{
			"occupancy_id": occ.ID,
			"space_id":     occ.SpaceID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReservationExpired notifies the user that an unused reservation lapsed.
func (s *NotificationService) NotifyReservationExpired(ctx context.Context, occ *domain.Occupancy) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationExpired,
		RecipientID: occ.UserID,
		Title:       "Reservation Expired",
		Message:     fmt.Sprintf("Your reservation for space %s expired before check-in", occ.SpaceID),
		Data: map[string]interface{}{
			"occupancy_id": occ.ID,
			"space_id":     occ.SpaceID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyCheckedIn notifies the user that their stay has started.
func (s *NotificationService) NotifyCheckedIn(ctx context.Context, occ *domain.Occupancy) error {
	return s.send(ctx, Notification{
		Type:        NotificationCheckedIn,
		RecipientID: occ.UserID,
		Title:       "Checked In",
		Message:     fmt.Sprintf("Vehicle checked in to space %s", occ.SpaceID),
		Data: map[string]interface{}{
			"occupancy_id": occ.ID,
			"space_id":     occ.SpaceID,
			"entry_time":   occ.EntryTime,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyCheckedOut notifies the user that their stay has ended with the amount due.
func (s *NotificationService) NotifyCheckedOut(ctx context.Context, occ *domain.Occupancy, bill *domain.Bill) error {
	return s.send(ctx, Notification{
		Type:        NotificationCheckedOut,
		RecipientID: occ.UserID,
		Title:       "Checked Out",
		Message:     fmt.Sprintf("Your stay has ended. Amount due: %.2f", bill.Amount),
		Data: map[string]interface{}{
			"occupancy_id": occ.ID,
			"bill_id":      bill.ID,
			"amount":       bill.Amount,
			"exit_time":    occ.ExitTime,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBillPaid confirms a settled bill.
func (s *NotificationService) NotifyBillPaid(ctx context.Context, bill *domain.Bill, recipientID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationBillPaid,
		RecipientID: recipientID,
		Title:       "Payment Received",
		Message:     fmt.Sprintf("Payment of %.2f received", bill.Amount),
		Data: map[string]interface{}{
			"bill_id":      bill.ID,
			"amount":       bill.Amount,
			"payment_time": bill.PaymentTime,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
