package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/models"
)

func TestBalanceRepositoryApplyDelta(t *testing.T) {
	ctx := context.Background()
	repo := NewBalanceRepository(kvstore.NewMemoryStore())

	balance, err := repo.Get(ctx, "alice@example.com")
	if err != nil || balance != 0 {
		t.Fatalf("fresh account: balance=%d err=%v", balance, err)
	}

	after, err := repo.ApplyDelta(ctx, "alice@example.com", 2500)
	if err != nil || after != 2500 {
		t.Fatalf("credit: after=%d err=%v", after, err)
	}
	after, err = repo.ApplyDelta(ctx, "alice@example.com", -1000)
	if err != nil || after != 1500 {
		t.Fatalf("debit: after=%d err=%v", after, err)
	}

	if _, err = repo.ApplyDelta(ctx, "alice@example.com", -1501); !errors.Is(err, kvstore.ErrFloorViolated) {
		t.Fatalf("expected floor violation, got %v", err)
	}
	balance, _ = repo.Get(ctx, "alice@example.com")
	if balance != 1500 {
		t.Fatalf("balance changed after rejected debit: %d", balance)
	}
}

func TestTransactionRepositoryHistoryOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(kvstore.NewMemoryStore())
	base := time.Now()

	for i, id := range []string{"t1", "t2", "t3"} {
		txn := &models.Transaction{
			ID:           id,
			Email:        "bob@example.com",
			Type:         models.TxnTypeCreditAdded,
			Source:       models.TxnSourceGiftCard,
			Amount:       models.Cents(100 * (i + 1)),
			BalanceAfter: models.Cents(100 * (i + 1)),
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}
		if _, err := repo.Append(ctx, txn); err != nil {
			t.Fatalf("append %s failed: %v", id, err)
		}
	}

	history, err := repo.History(ctx, "bob@example.com", 0)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 3 || history[0].ID != "t3" || history[2].ID != "t1" {
		t.Fatalf("expected newest first, got %+v", history)
	}

	limited, err := repo.History(ctx, "bob@example.com", 2)
	if err != nil || len(limited) != 2 || limited[0].ID != "t3" {
		t.Fatalf("limited history: %+v err=%v", limited, err)
	}
}

func TestTransactionRepositoryHistorySkipsMissingRecords(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewTransactionRepository(store)

	txn := &models.Transaction{ID: "keep", Email: "bob@example.com", Amount: 100, CreatedAt: time.Now()}
	if _, err := repo.Append(ctx, txn); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	// 索引指向的记录被逐出后不应让整条历史失败
	if err := store.PushFront(ctx, "txn-index:bob@example.com", "evicted"); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	history, err := repo.History(ctx, "bob@example.com", 0)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != "keep" {
		t.Fatalf("expected evicted id skipped, got %+v", history)
	}
}

func TestTransactionRepositoryAppendIdempotent(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewTransactionRepository(store)

	txn := &models.Transaction{ID: "once", Email: "bob@example.com", Amount: 250, CreatedAt: time.Now()}
	indexed, err := repo.Append(ctx, txn)
	if err != nil || !indexed {
		t.Fatalf("first append: indexed=%v err=%v", indexed, err)
	}
	indexed, err = repo.Append(ctx, txn)
	if err != nil || indexed {
		t.Fatalf("repeated append must not re-index: indexed=%v err=%v", indexed, err)
	}
	history, err := repo.History(ctx, "bob@example.com", 0)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected single ledger entry, got %d err=%v", len(history), err)
	}

	// 记录在、索引丢的半落账状态，重新 Append 补上索引
	if err := store.Delete(ctx, "txn-index:bob@example.com"); err != nil {
		t.Fatalf("delete index failed: %v", err)
	}
	indexed, err = repo.Append(ctx, txn)
	if err != nil || !indexed {
		t.Fatalf("repair append: indexed=%v err=%v", indexed, err)
	}
	history, err = repo.History(ctx, "bob@example.com", 0)
	if err != nil || len(history) != 1 || history[0].ID != "once" {
		t.Fatalf("expected repaired history, got %+v err=%v", history, err)
	}
}

func TestTransactionRepositoryPendingLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(kvstore.NewMemoryStore())

	pending := &models.PendingTxn{
		Txn: models.Transaction{
			ID:     "p1",
			Email:  "carol@example.com",
			Type:   models.TxnTypeCreditUsed,
			Amount: -500,
		},
		WrittenAt: time.Now(),
	}
	if err := repo.WritePending(ctx, pending); err != nil {
		t.Fatalf("write pending failed: %v", err)
	}
	if pending.Phase != PendingPhaseWritten {
		t.Fatalf("expected written phase, got %s", pending.Phase)
	}
	pending.Txn.BalanceAfter = 1500
	if err := repo.MarkPendingApplied(ctx, pending); err != nil {
		t.Fatalf("mark applied failed: %v", err)
	}

	drained, err := repo.DrainPending(ctx)
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if len(drained) != 1 || drained[0].Phase != PendingPhaseApplied || drained[0].Txn.BalanceAfter != 1500 {
		t.Fatalf("unexpected drained records: %+v", drained)
	}

	// 再次恢复应为空
	drained, err = repo.DrainPending(ctx)
	if err != nil || len(drained) != 0 {
		t.Fatalf("second drain should be empty: %+v err=%v", drained, err)
	}
}

func TestTransactionRepositoryDrainSkipsCleared(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(kvstore.NewMemoryStore())

	pending := &models.PendingTxn{Txn: models.Transaction{ID: "done", Email: "carol@example.com"}, WrittenAt: time.Now()}
	if err := repo.WritePending(ctx, pending); err != nil {
		t.Fatalf("write pending failed: %v", err)
	}
	if err := repo.ClearPending(ctx, "done"); err != nil {
		t.Fatalf("clear pending failed: %v", err)
	}

	drained, err := repo.DrainPending(ctx)
	if err != nil || len(drained) != 0 {
		t.Fatalf("cleared record should not drain: %+v err=%v", drained, err)
	}
}

func TestGiftCardRepositoryCreateCollision(t *testing.T) {
	ctx := context.Background()
	repo := NewGiftCardRepository(kvstore.NewMemoryStore())

	card := &models.GiftCard{
		Code:      "DOJO-AAAA-BBBB-CCCC",
		Value:     2500,
		Status:    models.GiftCardStatusActive,
		CreatedAt: time.Now(),
	}
	ok, err := repo.Create(ctx, card)
	if err != nil || !ok {
		t.Fatalf("create: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Create(ctx, card)
	if err != nil || ok {
		t.Fatalf("duplicate code should not be created: ok=%v err=%v", ok, err)
	}

	loaded, err := repo.Get(ctx, card.Code)
	if err != nil || loaded == nil || loaded.Value != 2500 {
		t.Fatalf("get: %+v err=%v", loaded, err)
	}
	if loaded.Redeemed() {
		t.Fatalf("fresh card should not be redeemed")
	}
}

func TestGiftCardRepositoryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewGiftCardRepository(kvstore.NewMemoryStore())

	for _, code := range []string{"DOJO-1111-AAAA-BBBB", "DOJO-2222-AAAA-BBBB"} {
		card := &models.GiftCard{Code: code, Value: 1000, Status: models.GiftCardStatusActive, CreatedAt: time.Now()}
		if ok, err := repo.Create(ctx, card); err != nil || !ok {
			t.Fatalf("create %s: ok=%v err=%v", code, ok, err)
		}
	}

	cards, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(cards) != 2 || cards[0].Code != "DOJO-2222-AAAA-BBBB" {
		t.Fatalf("expected newest first, got %+v", cards)
	}
}

func TestReservationRepositoryClaimOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewReservationRepository(kvstore.NewMemoryStore())

	reservation := &models.Reservation{
		ID:          "res-1",
		Email:       "dave@example.com",
		Amount:      800,
		CheckoutRef: "order-77",
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	if err := repo.Create(ctx, reservation, time.Hour); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	claimed, err := repo.Claim(ctx, "res-1")
	if err != nil || claimed == nil || claimed.Amount != 800 {
		t.Fatalf("claim: %+v err=%v", claimed, err)
	}
	// 第二次认领必须失败（恰好一次提交）
	claimed, err = repo.Claim(ctx, "res-1")
	if err != nil || claimed != nil {
		t.Fatalf("second claim should miss: %+v err=%v", claimed, err)
	}
}

func TestReservationRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	now := time.Now()
	store.Now = func() time.Time { return now }
	repo := NewReservationRepository(store)

	reservation := &models.Reservation{
		ID:          "res-2",
		Email:       "dave@example.com",
		Amount:      500,
		CheckoutRef: "order-78",
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	if err := repo.Create(ctx, reservation, time.Hour); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	now = now.Add(2 * time.Hour)
	claimed, err := repo.Claim(ctx, "res-2")
	if err != nil || claimed != nil {
		t.Fatalf("expired reservation should miss: %+v err=%v", claimed, err)
	}
}
