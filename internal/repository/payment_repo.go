package repository

import (
	"context"
	"errors"
	"time"

	"tourbook/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// SettleCompleted moves a pending payment to completed and confirms the
// parent booking in one transaction. The payment row is locked for the
// duration so concurrent duplicate deliveries serialize; the loser observes a
// terminal status and returns applied=false with that status.
func (r *PaymentRepository) SettleCompleted(ctx context.Context, orderID, txnID, rawBody string, paidAt time.Time) (bool, domain.PaymentStatus, error) {
	var (
		applied bool
		prev    domain.PaymentStatus
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_order_id = ?", orderID).First(&p).Error; err != nil {
			return err
		}
		prev = p.Status
		if p.Status != domain.PaymentStatusPending {
			applied = false
			return nil
		}

		res := tx.Model(&domain.Payment{}).
			Where("gateway_order_id = ?", orderID).
			Updates(map[string]interface{}{
				"status":         domain.PaymentStatusCompleted,
				"gateway_txn_id": txnID,
				"raw_response":   rawBody,
				"paid_at":        paidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("payment row not updated")
		}

		if err := tx.Model(&domain.Booking{}).
			Where("id = ?", p.BookingID).
			Updates(map[string]interface{}{
				"payment_status": domain.BookingPaymentCompleted,
				"status":         domain.BookingConfirmed,
			}).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, prev, err
}

// SettleFailed moves a pending payment to failed and marks the booking's
// payment status failed. The booking lifecycle status is left untouched: a
// failed payment does not un-confirm a booking.
func (r *PaymentRepository) SettleFailed(ctx context.Context, orderID, reason, rawBody string) (bool, domain.PaymentStatus, error) {
	var (
		applied bool
		prev    domain.PaymentStatus
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_order_id = ?", orderID).First(&p).Error; err != nil {
			return err
		}
		prev = p.Status
		if p.Status != domain.PaymentStatusPending {
			applied = false
			return nil
		}

		if err := tx.Model(&domain.Payment{}).
			Where("gateway_order_id = ?", orderID).
			Updates(map[string]interface{}{
				"status":         domain.PaymentStatusFailed,
				"failure_reason": reason,
				"raw_response":   rawBody,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&domain.Booking{}).
			Where("id = ?", p.BookingID).
			Update("payment_status", domain.BookingPaymentFailed).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, prev, err
}

// MarkRefunded moves a completed payment to refunded with refund metadata.
// The booking is deliberately not reverted; delivery may already be underway.
func (r *PaymentRepository) MarkRefunded(ctx context.Context, orderID string, amount int64, reason string, refundedAt time.Time) (bool, domain.PaymentStatus, error) {
	var (
		applied bool
		prev    domain.PaymentStatus
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_order_id = ?", orderID).First(&p).Error; err != nil {
			return err
		}
		prev = p.Status
		if p.Status != domain.PaymentStatusCompleted {
			applied = false
			return nil
		}

		if err := tx.Model(&domain.Payment{}).
			Where("gateway_order_id = ?", orderID).
			Updates(map[string]interface{}{
				"status":        domain.PaymentStatusRefunded,
				"refund_amount": amount,
				"refund_reason": reason,
				"refunded_at":   refundedAt,
			}).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, prev, err
}
