package report

import (
	"strings"
	"testing"
	"time"

	"StockReview/pkg/model"
)

func TestCNY(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{in: 500, want: "500.00"},
		{in: 1700, want: "1,700.00"},
		{in: -966, want: "966.00"},
	}
	for _, tc := range testCases {
		if got := CNY(tc.in); !strings.Contains(got, tc.want) {
			t.Errorf("CNY(%v) = %q, want it to contain %q", tc.in, got, tc.want)
		}
	}
}

func TestTradeAnalysisMarkdown(t *testing.T) {
	a := model.TradeAnalysis{
		TotalTrades:  1,
		ProfitTrades: 1,
		TotalProfit:  500,
		WinRate:      100,
		WinRateText:  "100.0%",
		MonthlyStats: []model.MonthlyTradeStat{{Month: "2024-01", Trades: 1, ProfitTrades: 1, Profit: 500}},
		ReasonStats:  []model.ReasonTradeStat{{Reason: "突破|回踩", Trades: 1, ProfitTrades: 1, Profit: 500, WinRate: 100}},
	}
	got := TradeAnalysisMarkdown(a)
	for _, want := range []string{"# 交易分析", "| 胜率 | 100.0% |", "## 月度统计", "突破\\|回踩"} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown missing %q:\n%s", want, got)
		}
	}
}

func TestKnowledgeHTML(t *testing.T) {
	now := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	entries := []model.KnowledgeEntry{{
		Title:     "止损纪律",
		Content:   "亏损 **7%** 必须离场",
		Type:      model.KnowledgeRule,
		Tags:      []string{"纪律"},
		CreatedAt: now,
		UpdatedAt: now,
	}}
	html, err := HTML(KnowledgeMarkdown(entries, now))
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	for _, want := range []string{"<h2>止损纪律</h2>", "<strong>7%</strong>", "<li>类型: 规则</li>"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q:\n%s", want, html)
		}
	}
}

func TestKnowledgeJSON(t *testing.T) {
	got, err := KnowledgeJSON([]model.KnowledgeEntry{})
	if err != nil || got != "[]" {
		t.Errorf("KnowledgeJSON(empty) = %q, %v", got, err)
	}
}
