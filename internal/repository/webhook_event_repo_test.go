package repository

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"tourbook/internal/domain"
)

func setupLedgerTest(t *testing.T) *WebhookEventRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&domain.WebhookEvent{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return NewWebhookEventRepository(db)
}

func TestRecordClaimsIdentityOnce(t *testing.T) {
	repo := setupLedgerTest(t)
	ctx := context.Background()

	ev := &domain.WebhookEvent{
		Provider:       "momo",
		EventKey:       "MOMO_BK001_1:555",
		GatewayOrderID: "MOMO_BK001_1",
		GatewayTxnID:   "555",
		Outcome:        "completed",
	}
	created, err := repo.Record(ctx, ev)
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if !created {
		t.Fatal("first insert must claim the identity")
	}

	dup := &domain.WebhookEvent{Provider: "momo", EventKey: "MOMO_BK001_1:555"}
	created, err = repo.Record(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate Record returned error: %v", err)
	}
	if created {
		t.Fatal("duplicate insert must lose the claim, not create a row")
	}
}

func TestExistsDistinguishesProviders(t *testing.T) {
	repo := setupLedgerTest(t)
	ctx := context.Background()

	if _, err := repo.Record(ctx, &domain.WebhookEvent{Provider: "momo", EventKey: "K"}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	seen, err := repo.Exists(ctx, "momo", "K")
	if err != nil {
		t.Fatalf("Exists returned error: %v", err)
	}
	if !seen {
		t.Fatal("recorded event not found")
	}

	// The same key under a different provider is a different identity.
	seen, err = repo.Exists(ctx, "vnpay", "K")
	if err != nil {
		t.Fatalf("Exists returned error: %v", err)
	}
	if seen {
		t.Fatal("identity leaked across providers")
	}
}
