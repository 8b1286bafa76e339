package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"StockReview/pkg/config"
)

type stock struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Sector string   `json:"sector"`
	Tags   []string `json:"tags"`
}

type trade struct {
	ID        int64   `json:"id,omitempty"`
	StockCode string  `json:"stockCode"`
	Price     float64 `json:"price"`
}

// engines 返回所有待测引擎，sqlite 不可用时跳过
func engines(t *testing.T) map[string]func(t *testing.T) *DB {
	t.Helper()
	return map[string]func(t *testing.T) *DB{
		"memory": func(t *testing.T) *DB { return NewMemory() },
		"sqlite": func(t *testing.T) *DB {
			db, err := Open(config.StorageConfig{Driver: config.DriverSQLite, Path: ":memory:"})
			if err != nil {
				t.Skipf("sqlite unavailable: %v", err)
			}
			if err := db.Init(context.Background()); err != nil {
				t.Skipf("sqlite unavailable: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			return db
		},
	}
}

func forEachEngine(t *testing.T, fn func(t *testing.T, db *DB)) {
	for name, open := range engines(t) {
		t.Run(name, func(t *testing.T) { fn(t, open(t)) })
	}
}

func TestAddDuplicateKey(t *testing.T) {
	forEachEngine(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		stocks := NewTyped[stock](db, Stocks)
		if _, err := stocks.Add(ctx, stock{Code: "600519", Name: "贵州茅台", Tags: []string{}}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		_, err := stocks.Add(ctx, stock{Code: "600519", Name: "again", Tags: []string{}})
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("Add() error = %v, want ErrDuplicateKey", err)
		}
		var se *StorageError
		if !errors.As(err, &se) || se.Collection != Stocks {
			t.Errorf("error should be a StorageError on %s, got %v", Stocks, err)
		}
		got, ok, err := stocks.Get(ctx, "600519")
		if err != nil || !ok || got.Name != "贵州茅台" {
			t.Errorf("Get() = %+v, %v, %v", got, ok, err)
		}
	})
}

func TestAutoIncrement(t *testing.T) {
	forEachEngine(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		trades := NewTyped[trade](db, TradeRecords)
		k1, err := trades.Add(ctx, trade{StockCode: "000001", Price: 10})
		if err != nil {
			t.Fatal(err)
		}
		k2, err := trades.Add(ctx, trade{StockCode: "000001", Price: 12})
		if err != nil {
			t.Fatal(err)
		}
		if k1 != "1" || k2 != "2" {
			t.Errorf("keys = %q, %q; want 1, 2", k1, k2)
		}
		got, ok, err := trades.Get(ctx, k2)
		if err != nil || !ok {
			t.Fatalf("Get() = %v, %v", ok, err)
		}
		if diff := cmp.Diff(trade{ID: 2, StockCode: "000001", Price: 12}, got); diff != "" {
			t.Errorf("Get() mismatch (-want +got):\n%s", diff)
		}

		// 更新时带入更大的主键会推进计数器
		if _, err := trades.Put(ctx, trade{ID: 10, StockCode: "000002", Price: 5}); err != nil {
			t.Fatal(err)
		}
		k3, err := trades.Add(ctx, trade{StockCode: "000003", Price: 1})
		if err != nil {
			t.Fatal(err)
		}
		if id, _ := k3.Int64(); id != 11 {
			t.Errorf("next key = %q, want 11", k3)
		}
	})
}

func TestGetMissing(t *testing.T) {
	forEachEngine(t, func(t *testing.T, db *DB) {
		_, ok, err := NewTyped[stock](db, Stocks).Get(context.Background(), "nope")
		if err != nil || ok {
			t.Errorf("Get() = %v, %v; want not found without error", ok, err)
		}
	})
}

func TestIndexes(t *testing.T) {
	forEachEngine(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		stocks := NewTyped[stock](db, Stocks)
		for _, s := range []stock{
			{Code: "600519", Name: "贵州茅台", Sector: "白酒", Tags: []string{"消费", "龙头"}},
			{Code: "000858", Name: "五粮液", Sector: "白酒", Tags: []string{"消费"}},
			{Code: "002594", Name: "比亚迪", Sector: "汽车", Tags: []string{"龙头"}},
		} {
			if _, err := stocks.Add(ctx, s); err != nil {
				t.Fatal(err)
			}
		}

		bySector, err := stocks.ByIndex(ctx, "sector", "白酒")
		if err != nil {
			t.Fatal(err)
		}
		if len(bySector) != 2 {
			t.Errorf("sector index returned %d records, want 2", len(bySector))
		}

		byTag, err := stocks.ByIndex(ctx, "tags", "龙头")
		if err != nil {
			t.Fatal(err)
		}
		codes := []string{}
		for _, s := range byTag {
			codes = append(codes, s.Code)
		}
		if diff := cmp.Diff([]string{"002594", "600519"}, codes); diff != "" {
			t.Errorf("tags index mismatch (-want +got):\n%s", diff)
		}

		// 更新后旧索引值失效
		if _, err := stocks.Put(ctx, stock{Code: "600519", Name: "贵州茅台", Sector: "白酒", Tags: []string{"消费"}}); err != nil {
			t.Fatal(err)
		}
		byTag, _ = stocks.ByIndex(ctx, "tags", "龙头")
		if len(byTag) != 1 {
			t.Errorf("stale index entry after update: %+v", byTag)
		}

		if _, err := stocks.ByIndex(ctx, "price", 1); !errors.Is(err, ErrUnknownIndex) {
			t.Errorf("ByIndex() on unknown index error = %v", err)
		}
	})
}

func TestLongIndexValue(t *testing.T) {
	forEachEngine(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		title := strings.Repeat("复盘", 300)
		raw, _ := json.Marshal(map[string]any{"title": title, "content": "x"})
		if _, err := db.Add(ctx, Knowledge, raw); err != nil {
			t.Fatal(err)
		}
		got, err := db.GetByIndex(ctx, Knowledge, "title", title)
		if err != nil || len(got) != 1 {
			t.Errorf("GetByIndex() on %d-char title = %d records, %v", len([]rune(title)), len(got), err)
		}
	})
}

func TestNumericIndex(t *testing.T) {
	forEachEngine(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		raw := []byte(`{"originalId": 7, "token": "abc", "sharedAt": "2024-01-01T00:00:00Z", "expiresAt": "2024-01-08T00:00:00Z"}`)
		if _, err := db.Add(ctx, SharedExports, raw); err != nil {
			t.Fatal(err)
		}
		got, err := db.GetByIndex(ctx, SharedExports, "originalId", int64(7))
		if err != nil || len(got) != 1 {
			t.Errorf("GetByIndex() = %d records, %v", len(got), err)
		}
	})
}

func TestDeleteClearCount(t *testing.T) {
	forEachEngine(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		trades := NewTyped[trade](db, TradeRecords)
		for i := 0; i < 3; i++ {
			if _, err := trades.Add(ctx, trade{StockCode: "000001", Price: 1}); err != nil {
				t.Fatal(err)
			}
		}
		if err := trades.Delete(ctx, "2"); err != nil {
			t.Fatal(err)
		}
		if err := trades.Delete(ctx, "99"); err != nil {
			t.Errorf("Delete() of missing key error = %v", err)
		}
		if n, _ := trades.Count(ctx); n != 2 {
			t.Errorf("Count() = %d, want 2", n)
		}
		byCode, _ := trades.ByIndex(ctx, "stockCode", "000001")
		if len(byCode) != 2 {
			t.Errorf("index still references deleted record: %d", len(byCode))
		}
		if err := trades.Clear(ctx); err != nil {
			t.Fatal(err)
		}
		if n, _ := trades.Count(ctx); n != 0 {
			t.Errorf("Count() after Clear = %d", n)
		}
	})
}

func TestInvalidRecords(t *testing.T) {
	testCases := []struct {
		name       string
		collection string
		raw        string
		want       error
	}{
		{name: "not an object", collection: Stocks, raw: `[1,2]`, want: ErrInvalidRecord},
		{name: "missing natural key", collection: Stocks, raw: `{"name":"x"}`, want: ErrInvalidRecord},
		{name: "empty natural key", collection: Stocks, raw: `{"code":" "}`, want: ErrInvalidRecord},
		{name: "tags not array", collection: Stocks, raw: `{"code":"1","tags":"a"}`, want: ErrInvalidRecord},
		{name: "fractional id", collection: TradeRecords, raw: `{"id":1.5}`, want: ErrInvalidRecord},
		{name: "unknown collection", collection: "positions", raw: `{}`, want: ErrUnknownCollection},
	}
	db := NewMemory()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.Add(context.Background(), tc.collection, []byte(tc.raw))
			if !errors.Is(err, tc.want) {
				t.Errorf("Add() error = %v, want %v", err, tc.want)
			}
		})
	}
}

type countingEngine struct {
	*MemoryEngine
	migrations atomic.Int32
}

func (c *countingEngine) Migrate(ctx context.Context, schemas []Schema) error {
	c.migrations.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.MemoryEngine.Migrate(ctx, schemas)
}

func TestConcurrentInit(t *testing.T) {
	engine := &countingEngine{MemoryEngine: NewMemoryEngine()}
	db := New(engine)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, _ := json.Marshal(trade{StockCode: "000001", Price: 1})
			if _, err := db.Add(ctx, TradeRecords, raw); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := engine.migrations.Load(); n != 1 {
		t.Errorf("Migrate called %d times, want 1", n)
	}
	if n, _ := db.Count(ctx, TradeRecords); n != 20 {
		t.Errorf("Count() = %d, want 20", n)
	}
}

func TestInitIgnoresCallerCancel(t *testing.T) {
	engine := &countingEngine{MemoryEngine: NewMemoryEngine()}
	db := New(engine)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := db.Init(ctx); err != nil {
		t.Fatalf("Init() with cancelled context error = %v", err)
	}
	if !db.Ready() {
		t.Error("Ready() = false after Init")
	}
	if n, err := db.Count(context.Background(), TradeRecords); err != nil || n != 0 {
		t.Errorf("Count() = %d, %v", n, err)
	}
}

func TestClosed(t *testing.T) {
	db := NewMemory()
	db.Close()
	if _, err := db.Count(context.Background(), Stocks); !errors.Is(err, ErrClosed) {
		t.Errorf("Count() after Close error = %v", err)
	}
}
