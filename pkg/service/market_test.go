package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"StockReview/pkg/model"
	"StockReview/pkg/recordstore"
)

func TestGetMarketSentimentLatest(t *testing.T) {
	svc, _ := newTestServices(t, "")
	ctx := context.Background()

	got, err := svc.Market.GetMarketSentiment(ctx, nil)
	if err != nil || got != nil {
		t.Fatalf("empty store: got %v, %v; want nil, nil", got, err)
	}

	for _, d := range []string{"2024-01-01", "2024-01-03", "2024-01-02"} {
		if _, err := svc.Market.SaveMarketSentiment(ctx, model.MarketSentiment{Date: d}); err != nil {
			t.Fatal(err)
		}
	}
	got, err = svc.Market.GetMarketSentiment(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2024-01-03" {
		t.Errorf("latest = %s, want 2024-01-03", got.Date)
	}

	d := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	got, err = svc.Market.GetMarketSentiment(ctx, &d)
	if err != nil || got == nil || got.Date != "2024-01-02" {
		t.Errorf("dated lookup = %v, %v", got, err)
	}

	if _, err := svc.Market.SaveMarketSentiment(ctx, model.MarketSentiment{Date: "2024-01-02"}); !errors.Is(err, recordstore.ErrDuplicateKey) {
		t.Errorf("second snapshot for the same day error = %v, want ErrDuplicateKey", err)
	}
}

func TestMarketSentimentRejectsBadDate(t *testing.T) {
	svc, _ := newTestServices(t, "")
	ctx := context.Background()
	if _, err := svc.Market.SaveMarketSentiment(ctx, model.MarketSentiment{Date: "2024-01-10"}); err != nil {
		t.Fatal(err)
	}

	for _, d := range []string{"2024-1-3", "garbage"} {
		if _, err := svc.Market.SaveMarketSentiment(ctx, model.MarketSentiment{Date: d}); !IsValidation(err) {
			t.Errorf("SaveMarketSentiment(%q) error = %v, want ValidationError", d, err)
		}
		if _, err := svc.Market.UpdateMarketSentiment(ctx, model.MarketSentiment{Date: d}); !IsValidation(err) {
			t.Errorf("UpdateMarketSentiment(%q) error = %v, want ValidationError", d, err)
		}
	}

	if n, _ := svc.Records.Count(ctx, recordstore.MarketSentiment); n != 1 {
		t.Errorf("sentiment records = %d, want 1", n)
	}
	latest, err := svc.Market.GetMarketSentiment(ctx, nil)
	if err != nil || latest == nil || latest.Date != "2024-01-10" {
		t.Errorf("latest = %v, %v; want 2024-01-10", latest, err)
	}

	// RFC3339 输入归一化为日期键
	got, err := svc.Market.UpdateMarketSentiment(ctx, model.MarketSentiment{Date: "2024-01-11T09:30:00Z"})
	if err != nil || got.Date != "2024-01-11" {
		t.Errorf("UpdateMarketSentiment(RFC3339) = %q, %v", got.Date, err)
	}
}

func TestMarketEffects(t *testing.T) {
	svc, _ := newTestServices(t, "")
	ctx := context.Background()

	if _, err := svc.Market.AddStockToProfitEffect(ctx, model.ExampleStock{Code: "600519"}); !errors.Is(err, ErrNoSentiment) {
		t.Fatalf("AddStockToProfitEffect() on empty store error = %v", err)
	}
	if view, err := svc.Market.GetMarketLossEffect(ctx, nil); err != nil || view != nil {
		t.Errorf("GetMarketLossEffect() on empty store = %v, %v", view, err)
	}

	if _, err := svc.Market.SaveMarketSentiment(ctx, model.MarketSentiment{
		Date:     "2024-01-03",
		UpStocks: model.UpStocks{Value: 3000, Total: 5000, Percent: 60},
		LossEffect: model.Effect{
			Summary: "高位股补跌",
		},
	}); err != nil {
		t.Fatal(err)
	}

	profit, err := svc.Market.GetMarketProfitEffect(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := &model.EffectView{
		Date:          "2024-01-03",
		UpStocks:      model.UpStocks{Value: 3000, Total: 5000, Percent: 60},
		Summary:       "市场赚钱效应分析",
		Description:   "暂无详细描述",
		ExampleStocks: []model.ExampleStock{},
	}
	if diff := cmp.Diff(want, profit); diff != "" {
		t.Errorf("GetMarketProfitEffect() mismatch (-want +got):\n%s", diff)
	}

	loss, err := svc.Market.AddStockToLossEffect(ctx, model.ExampleStock{Name: "某高位股", Code: "000001", ChangePercent: -10})
	if err != nil {
		t.Fatal(err)
	}
	if loss.Summary != "高位股补跌" || len(loss.ExampleStocks) != 1 || loss.ExampleStocks[0].ID != "000001" {
		t.Errorf("loss effect = %+v", loss)
	}
}

func TestGetHotSectors(t *testing.T) {
	svc, _ := newTestServices(t, "")
	ctx := context.Background()

	if err := svc.Stock.SaveStocks(ctx, model.Stock{Code: "600519", Name: "贵州茅台", ChangePercent: 2.5}); err != nil {
		t.Fatal(err)
	}
	sectors := []model.Sector{
		{Code: "BK01", Name: "白酒", Change: 1.2, HotDays: 2, Stocks: []model.SectorStock{
			{Code: "600519", Name: "贵州茅台", Position: model.PositionLeader},
			{Code: "000858", Name: "五粮液", Position: model.PositionHeight},
		}},
		{Code: "BK02", Name: "半导体", Change: 3.1, HotDays: 5},
		{Code: "BK03", Name: "汽车", Change: -0.5, HotDays: 1},
	}
	if err := svc.Market.SaveSectors(ctx, sectors...); err != nil {
		t.Fatal(err)
	}

	hot, err := svc.Market.GetHotSectors(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hot) != 2 || hot[0].Code != "BK02" || hot[1].Code != "BK01" {
		t.Fatalf("hot sectors order = %+v", hot)
	}
	wantCore := model.CoreStocks{
		Leader:  model.CoreStock{Name: "贵州茅台", Code: "600519", ChangePercent: 2.5},
		Height:  model.CoreStock{Name: "五粮液", Code: "000858", ChangePercent: 1.2},
		Elastic: model.CoreStock{ChangePercent: 1.2},
	}
	if diff := cmp.Diff(wantCore, hot[1].CoreStocks); diff != "" {
		t.Errorf("core stocks mismatch (-want +got):\n%s", diff)
	}
	if hot[1].ID != "BK01" {
		t.Errorf("ID = %q, want BK01", hot[1].ID)
	}

	all, err := svc.Market.GetHotSectors(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("GetHotSectors(0) = %d sectors, %v", len(all), err)
	}
}

func TestSectorValidationAndStage(t *testing.T) {
	svc, _ := newTestServices(t, "")
	ctx := context.Background()

	err := svc.Market.SaveSectors(ctx, model.Sector{Code: "BK01", Stage: "冲高"})
	if !IsValidation(err) {
		t.Fatalf("unknown stage error = %v, want ValidationError", err)
	}
	if n, _ := svc.Records.Count(ctx, recordstore.Sectors); n != 0 {
		t.Errorf("invalid sector was stored")
	}

	svc.Market.SaveSectors(ctx,
		model.Sector{Code: "BK01", Stage: model.StageBurst, HotDays: 3},
		model.Sector{Code: "BK02", HotDays: 4},
	)
	burst, err := svc.Market.GetSectors(ctx, SectorQuery{Stage: model.StageBurst})
	if err != nil || len(burst) != 1 || burst[0].Code != "BK01" {
		t.Errorf("GetSectors(stage) = %+v, %v", burst, err)
	}
	watch, _ := svc.Market.GetSector(ctx, "BK02")
	if watch.Stage != model.StageWatch {
		t.Errorf("default stage = %q", watch.Stage)
	}
}

func TestMarketIndexRoundTrip(t *testing.T) {
	svc, _ := newTestServices(t, "")
	ctx := context.Background()
	in := model.MarketIndex{Code: "000001", Name: "上证指数", Value: 3532.88, Change: -0.01, ChangePercent: -0.01}
	if err := svc.Market.SaveMarketIndices(ctx, in); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Market.GetMarketIndex(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	want := model.NewMarketIndex(in, day0)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got.Status != model.StatusDown {
		t.Errorf("status = %s, want down", got.Status)
	}

	if _, err := svc.Market.GetMarketIndex(ctx, "399001"); !IsNotFound(err) {
		t.Errorf("missing index error = %v", err)
	}
}
