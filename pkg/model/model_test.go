package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var now = time.Date(2024, time.January, 3, 15, 0, 0, 0, time.UTC)

func TestStatusOf(t *testing.T) {
	testCases := []struct {
		name   string
		change float64
		want   Status
	}{
		{name: "slightly negative", change: -0.01, want: StatusDown},
		{name: "zero", change: 0, want: StatusDown},
		{name: "positive", change: 0.01, want: StatusUp},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewMarketIndex(MarketIndex{Code: "000001", Change: tc.change}, now).Status; got != tc.want {
				t.Errorf("index status = %v, want %v", got, tc.want)
			}
			if got := NewStock(Stock{Code: "600000", Change: tc.change}, now).Status; got != tc.want {
				t.Errorf("stock status = %v, want %v", got, tc.want)
			}
			if got := NewSector(Sector{Code: "BK0001", Change: tc.change}, now).Status; got != tc.want {
				t.Errorf("sector status = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCalculateMA(t *testing.T) {
	got := CalculateMA([]float64{1, 2, 3, 4}, 5)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i, v := range got {
		if v != nil {
			t.Errorf("ma[%d] = %v, want nil", i, *v)
		}
	}

	got = CalculateMA([]float64{1, 2, 3, 4, 5, 11}, 5)
	if got[3] != nil {
		t.Errorf("ma[3] = %v, want nil", *got[3])
	}
	if got[4] == nil || *got[4] != 3 {
		t.Errorf("ma[4] = %v, want 3", got[4])
	}
	if got[5] == nil || *got[5] != 5 {
		t.Errorf("ma[5] = %v, want 5", got[5])
	}
}

func TestNewStockSortsKlines(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.Add(Day)
	s := NewStock(Stock{Code: "600000", Data: &StockData{Klines: []Kline{
		{Date: d2, Open: 10, Close: 11},
		{Date: d1, Open: 9, Close: 10},
	}}}, now)
	if !s.Data.Klines[0].Date.Equal(d1) {
		t.Errorf("klines not sorted: %v", s.Data.Klines)
	}
	if s.Data.Klines[0].High != 10 || s.Data.Klines[0].Low != 9 {
		t.Errorf("high/low not filled: %+v", s.Data.Klines[0])
	}
	if len(s.Data.TechnicalIndicators.MA5) != 2 {
		t.Errorf("ma5 len = %d, want 2", len(s.Data.TechnicalIndicators.MA5))
	}
	if s.Tags == nil {
		t.Error("tags should be an empty list, not nil")
	}
}

func TestParseTradeType(t *testing.T) {
	testCases := []struct {
		in      string
		want    TradeType
		wantErr bool
	}{
		{in: "buy", want: TradeBuy},
		{in: "SELL", want: TradeSell},
		{in: "买入", want: TradeBuy},
		{in: "卖出", want: TradeSell},
		{in: "hold", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTradeType(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseTradeType(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseTradeType(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDefaultUserSettings(t *testing.T) {
	got := DefaultUserSettings(now)
	chart := DefaultChartPreferences()
	notif := DefaultNotificationSettings()
	want := UserSettings{
		ID:                   SettingsID,
		Theme:                ThemeLight,
		DefaultModule:        "marketOverview",
		FavoriteStocks:       []string{},
		FavoriteSectors:      []string{},
		ChartPreferences:     &chart,
		NotificationSettings: &notif,
		LastUpdated:          now,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DefaultUserSettings() mismatch (-want +got):\n%s", diff)
	}
	if got.ChartPreferences.MACDVisible || got.ChartPreferences.KDJVisible {
		t.Error("macd/kdj should be hidden by default")
	}
}

func TestNewKnowledgeEntryDefaults(t *testing.T) {
	e := NewKnowledgeEntry(KnowledgeEntry{Title: "止损", Tags: []string{" 纪律 ", ""}}, now)
	if e.Type != KnowledgeNote {
		t.Errorf("type = %v, want %v", e.Type, KnowledgeNote)
	}
	if diff := cmp.Diff([]string{"纪律"}, e.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if !e.CreatedAt.Equal(now) || !e.UpdatedAt.Equal(now) {
		t.Errorf("timestamps = %v/%v, want %v", e.CreatedAt, e.UpdatedAt, now)
	}
}

func TestNewStrategyTruncatesDate(t *testing.T) {
	s := NewStrategy(Strategy{Name: "龙头战法"}, now)
	if want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC); !s.Date.Equal(want) {
		t.Errorf("date = %v, want %v", s.Date, want)
	}
	if s.Parameters == nil || s.Stocks == nil {
		t.Error("empty collections should not be nil")
	}
}

func ptr[T any](v T) *T { return &v }

func TestAnalyzeTrades(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	records := []TradeRecord{
		{Type: TradeBuy, Date: jan},
		{Type: TradeSell, Date: jan, Reason: "突破", IsProfit: ptr(true), ProfitAmount: ptr(500.0), HoldDays: ptr(4)},
		{Type: TradeSell, Date: feb, Reason: "突破", IsProfit: ptr(false), ProfitAmount: ptr(-200.0), HoldDays: ptr(2)},
		{Type: TradeSell, Date: feb},
	}
	got := AnalyzeTrades(records)
	if got.TotalTrades != 2 || got.ProfitTrades != 1 || got.LossTrades != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", got.TotalTrades, got.ProfitTrades, got.LossTrades)
	}
	if got.TotalProfit != 300 {
		t.Errorf("TotalProfit = %v, want 300", got.TotalProfit)
	}
	if got.WinRateText != "50.0%" {
		t.Errorf("WinRateText = %q, want 50.0%%", got.WinRateText)
	}
	if got.AvgHoldingDays != 3 {
		t.Errorf("AvgHoldingDays = %v, want 3", got.AvgHoldingDays)
	}
	wantMonths := []MonthlyTradeStat{
		{Month: "2024-01", Trades: 1, ProfitTrades: 1, Profit: 500},
		{Month: "2024-02", Trades: 1, Profit: -200},
	}
	if diff := cmp.Diff(wantMonths, got.MonthlyStats); diff != "" {
		t.Errorf("MonthlyStats mismatch (-want +got):\n%s", diff)
	}
	if len(got.ReasonStats) != 1 || got.ReasonStats[0].WinRate != 50 {
		t.Errorf("ReasonStats = %+v", got.ReasonStats)
	}
}

func TestAnalyzeTradesOnlyBuys(t *testing.T) {
	got := AnalyzeTrades([]TradeRecord{{Type: TradeBuy, Date: now}})
	if got.TotalTrades != 0 || got.WinRateText != "0%" {
		t.Errorf("got %d trades, win rate %q; want 0 and 0%%", got.TotalTrades, got.WinRateText)
	}
}
