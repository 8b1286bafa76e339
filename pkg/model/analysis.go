// pkg/model/analysis.go
package model

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// TradeAnalysis 交易绩效统计
type TradeAnalysis struct {
	TotalTrades    int                `json:"totalTrades"`
	ProfitTrades   int                `json:"profitTrades"`
	LossTrades     int                `json:"lossTrades"`
	TotalProfit    float64            `json:"totalProfit"`
	WinRate        float64            `json:"winRate"`
	WinRateText    string             `json:"winRateText"`
	AvgHoldingDays float64            `json:"avgHoldingDays"`
	MonthlyStats   []MonthlyTradeStat `json:"monthlyStats"`
	ReasonStats    []ReasonTradeStat  `json:"reasonStats"`
}

// MonthlyTradeStat 按月统计
type MonthlyTradeStat struct {
	Month        string  `json:"month"`
	Trades       int     `json:"trades"`
	ProfitTrades int     `json:"profitTrades"`
	Profit       float64 `json:"profit"`
}

// ReasonTradeStat 按交易理由统计
type ReasonTradeStat struct {
	Reason       string  `json:"reason"`
	Trades       int     `json:"trades"`
	ProfitTrades int     `json:"profitTrades"`
	Profit       float64 `json:"profit"`
	WinRate      float64 `json:"winRate"`
}

// FormatWinRate 胜率文本，零值显示为 0%
func FormatWinRate(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", rate)
}

// AnalyzeTrades 汇总已匹配的卖出记录，未匹配的卖出和买入记录不参与统计
func AnalyzeTrades(records []TradeRecord) TradeAnalysis {
	var (
		a        TradeAnalysis
		total    = decimal.Zero
		holdDays int
		months   = map[string]*MonthlyTradeStat{}
		reasons  = map[string]*ReasonTradeStat{}
	)
	for _, r := range records {
		if r.Type != TradeSell || !r.Matched() {
			continue
		}
		a.TotalTrades++
		win := *r.IsProfit
		if win {
			a.ProfitTrades++
		} else {
			a.LossTrades++
		}
		var amount float64
		if r.ProfitAmount != nil {
			amount = *r.ProfitAmount
		}
		total = total.Add(decimal.NewFromFloat(amount))
		if r.HoldDays != nil {
			holdDays += *r.HoldDays
		}

		key := r.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthlyTradeStat{Month: key}
			months[key] = m
		}
		m.Trades++
		m.Profit = decimal.NewFromFloat(m.Profit).Add(decimal.NewFromFloat(amount)).InexactFloat64()

		reason := r.Reason
		if reason == "" {
			reason = "未填写"
		}
		rs, ok := reasons[reason]
		if !ok {
			rs = &ReasonTradeStat{Reason: reason}
			reasons[reason] = rs
		}
		rs.Trades++
		rs.Profit = decimal.NewFromFloat(rs.Profit).Add(decimal.NewFromFloat(amount)).InexactFloat64()
		if win {
			m.ProfitTrades++
			rs.ProfitTrades++
		}
	}

	a.TotalProfit = total.InexactFloat64()
	if a.TotalTrades > 0 {
		a.WinRate = float64(a.ProfitTrades) / float64(a.TotalTrades) * 100
		a.AvgHoldingDays = float64(holdDays) / float64(a.TotalTrades)
	}
	a.WinRateText = FormatWinRate(a.WinRate)

	a.MonthlyStats = make([]MonthlyTradeStat, 0, len(months))
	for _, m := range months {
		a.MonthlyStats = append(a.MonthlyStats, *m)
	}
	sort.Slice(a.MonthlyStats, func(i, j int) bool { return a.MonthlyStats[i].Month < a.MonthlyStats[j].Month })

	a.ReasonStats = make([]ReasonTradeStat, 0, len(reasons))
	for _, rs := range reasons {
		rs.WinRate = float64(rs.ProfitTrades) / float64(rs.Trades) * 100
		a.ReasonStats = append(a.ReasonStats, *rs)
	}
	sort.Slice(a.ReasonStats, func(i, j int) bool {
		if a.ReasonStats[i].Trades != a.ReasonStats[j].Trades {
			return a.ReasonStats[i].Trades > a.ReasonStats[j].Trades
		}
		return a.ReasonStats[i].Reason < a.ReasonStats[j].Reason
	})
	return a
}
