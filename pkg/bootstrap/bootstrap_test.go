package bootstrap

import (
	"context"
	"sync"
	"testing"
	"time"

	"StockReview/pkg/kvstore"
	"StockReview/pkg/model"
	"StockReview/pkg/recordstore"
	"StockReview/pkg/service"
)

var now = time.Date(2024, time.March, 15, 15, 0, 0, 0, time.UTC)

func newInitializer(t *testing.T) (*Initializer, *service.Services) {
	t.Helper()
	db := recordstore.NewMemory()
	t.Cleanup(func() { db.Close() })
	clock := func() time.Time { return now }
	svcs := service.New(db, kvstore.NewMemory(), service.Options{Clock: clock})
	return New(db, svcs, clock), svcs
}

func count(t *testing.T, svcs *service.Services, collection string) int {
	t.Helper()
	n, err := svcs.Records.Count(context.Background(), collection)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestInitSeedsSampleData(t *testing.T) {
	ini, svcs := newInitializer(t)
	ctx := context.Background()

	if err := ini.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if !ini.Seeded() || !ini.Done() {
		t.Fatalf("Seeded() = %v, Done() = %v", ini.Seeded(), ini.Done())
	}

	wants := map[string]int{
		recordstore.MarketIndices:   6,
		recordstore.Sectors:         5,
		recordstore.MarketSentiment: 1,
		recordstore.Stocks:          6,
		recordstore.TradeRecords:    5,
		recordstore.Strategies:      2,
		recordstore.UserSettings:    1,
	}
	for collection, want := range wants {
		if got := count(t, svcs, collection); got != want {
			t.Errorf("%s count = %d, want %d", collection, got, want)
		}
	}

	a, err := svcs.Trade.GetTradeAnalysis(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalTrades != 2 || a.TotalProfit != 734 || a.WinRateText != "50.0%" || a.AvgHoldingDays != 12.5 {
		t.Errorf("seeded analysis = %+v", a)
	}

	hot, _ := svcs.Market.GetHotSectors(ctx, 2)
	if len(hot) != 2 || hot[0].Code != "BK0001" || hot[0].CoreStocks.Leader.ChangePercent != 8.35 {
		t.Errorf("hot sectors = %+v", hot)
	}
	if got := svcs.User.GetTheme(ctx); got != model.ThemeLight {
		t.Errorf("theme = %q", got)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	ini, svcs := newInitializer(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ini.Init(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	ini.Init(ctx)

	if got := count(t, svcs, recordstore.TradeRecords); got != 5 {
		t.Errorf("trade records after repeated Init = %d, want 5", got)
	}
}

func TestInitSkipsExistingData(t *testing.T) {
	ini, svcs := newInitializer(t)
	ctx := context.Background()
	svcs.Market.SaveMarketIndices(ctx, model.MarketIndex{Code: "000001", Name: "上证指数"})

	if err := ini.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if ini.Seeded() {
		t.Error("seeded over existing data")
	}
	if got := count(t, svcs, recordstore.Stocks); got != 0 {
		t.Errorf("stocks = %d, want 0", got)
	}
}

func TestClearAll(t *testing.T) {
	ini, svcs := newInitializer(t)
	ctx := context.Background()
	ini.Init(ctx)
	svcs.User.Login("alice")

	if err := ini.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if ini.Done() || ini.Seeded() {
		t.Error("guard not reset")
	}
	for _, c := range recordstore.DefaultSchemas() {
		if got := count(t, svcs, c.Name); got != 0 {
			t.Errorf("%s count = %d after ClearAll", c.Name, got)
		}
	}
	if keys := svcs.KV.ListKeys(); len(keys) != 0 {
		t.Errorf("kv keys after ClearAll = %v", keys)
	}

	if err := ini.Init(ctx); err != nil || !ini.Seeded() {
		t.Errorf("re-init seeded = %v, err = %v", ini.Seeded(), err)
	}
}
