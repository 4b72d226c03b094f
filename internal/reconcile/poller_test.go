package reconcile

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/database"
	"github.com/gooddeedstech/crypt2p-main-service-sub000/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type fakeStatusSource struct {
	mu       sync.Mutex
	statuses []string
	calls    int
}

func (f *fakeStatusSource) GetTransferStatus(_ context.Context, transferId string) (*models.TransferStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	status := f.statuses[len(f.statuses)-1]
	if f.calls < len(f.statuses) {
		status = f.statuses[f.calls]
	}
	f.calls++

	return &models.TransferStatus{Id: transferId, Status: status}, nil
}

func setupPollerTest(t *testing.T, source StatusSource, interval, deadline time.Duration) (*Registry, *Engine, *database.Service, *fakeExecutor, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	service, err := database.NewServiceFromDB(db)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	registry := NewRegistry(source, service, models.ReconcileConfig{
		PollInterval: interval,
		PollDeadline: deadline,
	})
	executor := newFakeExecutor()
	engine := NewEngine(service, executor, registry)

	return registry, engine, service, executor, func() {
		registry.StopAll()
		db.Close()
	}
}

func waitForPollerExit(t *testing.T, registry *Registry) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if registry.Count() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Poller did not stop in time")
}

func TestPoller_StopsOnTerminalStatus(t *testing.T) {
	source := &fakeStatusSource{statuses: []string{"pending", "processing", "funds_received"}}
	registry, engine, service, executor, cleanup := setupPollerTest(t, source, 10*time.Millisecond, time.Minute)
	defer cleanup()

	seedTransaction(t, service, "t-poll", models.DirectionCashToCrypto)
	registry.Start(context.Background(), engine, "t-poll")

	waitForPollerExit(t, registry)

	if executor.callCount() != 1 {
		t.Errorf("Expected one settlement, got %d", executor.callCount())
	}

	tx, err := service.GetTransactionByTransferId(context.Background(), "t-poll")
	if err != nil {
		t.Fatalf("GetTransactionByTransferId failed: %v", err)
	}
	if tx.Status != models.StatusSuccessful {
		t.Errorf("Expected SUCCESSFUL, got %s", tx.Status)
	}
}

func TestPoller_AutoCancelsAtDeadline(t *testing.T) {
	source := &fakeStatusSource{statuses: []string{"pending"}}
	registry, engine, service, executor, cleanup := setupPollerTest(t, source, 10*time.Millisecond, 80*time.Millisecond)
	defer cleanup()

	seedTransaction(t, service, "t-expire", models.DirectionCashToCrypto)
	registry.Start(context.Background(), engine, "t-expire")

	waitForPollerExit(t, registry)

	tx, err := service.GetTransactionByTransferId(context.Background(), "t-expire")
	if err != nil {
		t.Fatalf("GetTransactionByTransferId failed: %v", err)
	}
	if tx.Status != models.StatusCancelled {
		t.Errorf("Expected auto-cancelled transaction, got %s", tx.Status)
	}
	if tx.Metadata != `{"auto_cancelled":true}` {
		t.Errorf("Expected auto-cancel metadata, got %q", tx.Metadata)
	}
	if executor.callCount() != 0 {
		t.Errorf("Expected no settlement, got %d calls", executor.callCount())
	}
}

func TestPoller_DeadlineLeavesProgressedTransactionAlone(t *testing.T) {
	source := &fakeStatusSource{statuses: []string{"processing"}}
	registry, engine, service, _, cleanup := setupPollerTest(t, source, 10*time.Millisecond, 80*time.Millisecond)
	defer cleanup()

	seedTransaction(t, service, "t-prog", models.DirectionCashToCrypto)
	registry.Start(context.Background(), engine, "t-prog")

	waitForPollerExit(t, registry)

	tx, err := service.GetTransactionByTransferId(context.Background(), "t-prog")
	if err != nil {
		t.Fatalf("GetTransactionByTransferId failed: %v", err)
	}
	if tx.Status != models.StatusProcessing {
		t.Errorf("Expected PROCESSING to survive the deadline, got %s", tx.Status)
	}
}

func TestRegistry_WebhookCancelsPoller(t *testing.T) {
	source := &fakeStatusSource{statuses: []string{"pending"}}
	registry, engine, service, executor, cleanup := setupPollerTest(t, source, 10*time.Millisecond, time.Minute)
	defer cleanup()
	ctx := context.Background()

	seedTransaction(t, service, "t-race", models.DirectionCashToCrypto)
	registry.Start(ctx, engine, "t-race")

	// Webhook path reaches the terminal state first; the engine cancels the
	// poller via the registry.
	outcome, err := engine.Observe(ctx, "t-race", "funds_received", nil, SourceWebhook)
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if !outcome.Terminal {
		t.Fatalf("Expected terminal outcome, got %+v", outcome)
	}

	waitForPollerExit(t, registry)

	if executor.callCount() != 1 {
		t.Errorf("Expected exactly one settlement, got %d", executor.callCount())
	}
}

func TestRegistry_DedupesTransfers(t *testing.T) {
	source := &fakeStatusSource{statuses: []string{"pending"}}
	registry, engine, service, _, cleanup := setupPollerTest(t, source, 10*time.Millisecond, time.Minute)
	defer cleanup()
	ctx := context.Background()

	seedTransaction(t, service, "t-dup", models.DirectionCashToCrypto)
	registry.Start(ctx, engine, "t-dup")
	registry.Start(ctx, engine, "t-dup")

	if registry.Count() != 1 {
		t.Errorf("Expected one poller, got %d", registry.Count())
	}
}
