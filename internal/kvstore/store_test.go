package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupGormStoreTest(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:kvstore_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	store, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("new gorm store failed: %v", err)
	}
	return store
}

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   setupGormStoreTest(t),
	}
}

func TestStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, found, err := store.Get(ctx, "missing"); err != nil || found {
				t.Fatalf("get missing: found=%v err=%v", found, err)
			}
			if err := store.Set(ctx, "greeting", "hello", 0); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			value, found, err := store.Get(ctx, "greeting")
			if err != nil || !found || value != "hello" {
				t.Fatalf("get after set: value=%q found=%v err=%v", value, found, err)
			}
			if err := store.Set(ctx, "greeting", "hi", 0); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			value, _, _ = store.Get(ctx, "greeting")
			if value != "hi" {
				t.Fatalf("expected overwritten value, got %q", value)
			}
			if err := store.Delete(ctx, "greeting"); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if _, found, _ := store.Get(ctx, "greeting"); found {
				t.Fatalf("expected key deleted")
			}
			// 删除不存在的键不报错
			if err := store.Delete(ctx, "greeting"); err != nil {
				t.Fatalf("delete missing failed: %v", err)
			}
		})
	}
}

func TestStoreSetNX(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := store.SetNX(ctx, "slot", "first", 0)
			if err != nil || !ok {
				t.Fatalf("first setnx: ok=%v err=%v", ok, err)
			}
			ok, err = store.SetNX(ctx, "slot", "second", 0)
			if err != nil || ok {
				t.Fatalf("second setnx should fail: ok=%v err=%v", ok, err)
			}
			value, _, _ := store.Get(ctx, "slot")
			if value != "first" {
				t.Fatalf("expected first writer to win, got %q", value)
			}
		})
	}
}

func TestStoreGetDel(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Set(ctx, "claim", "payload", 0); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			value, found, err := store.GetDel(ctx, "claim")
			if err != nil || !found || value != "payload" {
				t.Fatalf("getdel: value=%q found=%v err=%v", value, found, err)
			}
			if _, found, _ := store.GetDel(ctx, "claim"); found {
				t.Fatalf("second getdel should miss")
			}
		})
	}
}

func TestStoreIncrByFloor(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			after, err := store.IncrByFloor(ctx, "counter", 500, 0)
			if err != nil || after != 500 {
				t.Fatalf("credit: after=%d err=%v", after, err)
			}
			after, err = store.IncrByFloor(ctx, "counter", -200, 0)
			if err != nil || after != 300 {
				t.Fatalf("debit: after=%d err=%v", after, err)
			}
			// 跌破下限时既不修改也不返回成功
			if _, err = store.IncrByFloor(ctx, "counter", -301, 0); !errors.Is(err, ErrFloorViolated) {
				t.Fatalf("expected ErrFloorViolated, got %v", err)
			}
			current, err := store.GetInt(ctx, "counter")
			if err != nil || current != 300 {
				t.Fatalf("value changed after rejected debit: current=%d err=%v", current, err)
			}
			// 恰好到达下限允许
			after, err = store.IncrByFloor(ctx, "counter", -300, 0)
			if err != nil || after != 0 {
				t.Fatalf("exact debit: after=%d err=%v", after, err)
			}
		})
	}
}

func TestStoreIncrByFloorMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			// 不存在的键按 0 处理
			if _, err := store.IncrByFloor(ctx, "fresh", -1, 0); !errors.Is(err, ErrFloorViolated) {
				t.Fatalf("expected ErrFloorViolated on fresh key, got %v", err)
			}
			if current, _ := store.GetInt(ctx, "fresh"); current != 0 {
				t.Fatalf("fresh key should stay zero, got %d", current)
			}
		})
	}
}

func TestStoreListOrder(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, v := range []string{"a", "b", "c"} {
				if err := store.PushFront(ctx, "events", v); err != nil {
					t.Fatalf("push failed: %v", err)
				}
			}
			values, err := store.ListRange(ctx, "events", 0, -1)
			if err != nil {
				t.Fatalf("range failed: %v", err)
			}
			if len(values) != 3 || values[0] != "c" || values[1] != "b" || values[2] != "a" {
				t.Fatalf("expected newest first, got %v", values)
			}
			limited, err := store.ListRange(ctx, "events", 0, 1)
			if err != nil || len(limited) != 2 || limited[0] != "c" {
				t.Fatalf("limited range: %v err=%v", limited, err)
			}
			empty, err := store.ListRange(ctx, "events", 5, -1)
			if err != nil || len(empty) != 0 {
				t.Fatalf("out of range should be empty: %v err=%v", empty, err)
			}
		})
	}
}

func TestStorePushFrontUnique(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			inserted, err := store.PushFrontUnique(ctx, "ids", "a")
			if err != nil || !inserted {
				t.Fatalf("first push: inserted=%v err=%v", inserted, err)
			}
			inserted, err = store.PushFrontUnique(ctx, "ids", "a")
			if err != nil || inserted {
				t.Fatalf("duplicate push must be rejected: inserted=%v err=%v", inserted, err)
			}
			if _, err := store.PushFrontUnique(ctx, "ids", "b"); err != nil {
				t.Fatalf("push b failed: %v", err)
			}
			values, err := store.ListRange(ctx, "ids", 0, -1)
			if err != nil {
				t.Fatalf("range failed: %v", err)
			}
			if len(values) != 2 || values[0] != "b" || values[1] != "a" {
				t.Fatalf("expected [b a], got %v", values)
			}
		})
	}
}

func TestStoreDeleteCoversAllTypes(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.PushFront(ctx, "queue", "id-1"); err != nil {
				t.Fatalf("push failed: %v", err)
			}
			if err := store.Delete(ctx, "queue"); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			values, err := store.ListRange(ctx, "queue", 0, -1)
			if err != nil {
				t.Fatalf("range failed: %v", err)
			}
			if len(values) != 0 {
				t.Fatalf("list survived delete: %v", values)
			}

			if _, err := store.IncrByFloor(ctx, "hits", 3, 0); err != nil {
				t.Fatalf("incr failed: %v", err)
			}
			if err := store.Delete(ctx, "hits"); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			n, err := store.GetInt(ctx, "hits")
			if err != nil || n != 0 {
				t.Fatalf("counter survived delete: n=%d err=%v", n, err)
			}
		})
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.Now = func() time.Time { return now }

	if err := store.Set(ctx, "session", "tok", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, found, _ := store.Get(ctx, "session"); !found {
		t.Fatalf("expected key before expiry")
	}

	now = now.Add(time.Hour + time.Second)
	if _, found, _ := store.Get(ctx, "session"); found {
		t.Fatalf("expected key expired")
	}
	// 过期后 SetNX 可重新占用
	if ok, _ := store.SetNX(ctx, "session", "tok2", time.Hour); !ok {
		t.Fatalf("setnx should succeed after expiry")
	}
}

func TestGormStoreTTL(t *testing.T) {
	ctx := context.Background()
	store := setupGormStoreTest(t)
	now := time.Now()
	store.now = func() time.Time { return now }

	if err := store.Set(ctx, "hold", "h1", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, found, _ := store.Get(ctx, "hold"); !found {
		t.Fatalf("expected key before expiry")
	}

	now = now.Add(2 * time.Hour)
	if _, found, _ := store.Get(ctx, "hold"); found {
		t.Fatalf("expected key expired")
	}
	if ok, _ := store.SetNX(ctx, "hold", "h2", time.Hour); !ok {
		t.Fatalf("setnx should reclaim expired key")
	}
	if _, found, _ := store.GetDel(ctx, "hold"); !found {
		t.Fatalf("expected reclaimed key present")
	}
}

func TestMemoryStoreConcurrentIncr(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.IncrByFloor(ctx, "balance", 1000, 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	const workers = 50
	var wg sync.WaitGroup
	okCount := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.IncrByFloor(ctx, "balance", -100, 0); err == nil {
				okCount <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(okCount)

	succeeded := 0
	for range okCount {
		succeeded++
	}
	if succeeded != 10 {
		t.Fatalf("expected exactly 10 debits to succeed, got %d", succeeded)
	}
	if current, _ := store.GetInt(ctx, "balance"); current != 0 {
		t.Fatalf("expected zero balance, got %d", current)
	}
}
