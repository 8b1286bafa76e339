// pkg/model/trade.go
package model

import (
	"fmt"
	"strings"
	"time"
)

// TradeType 交易方向
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// ParseTradeType 解析交易方向，兼容中文写法
func ParseTradeType(s string) (TradeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "买入":
		return TradeBuy, nil
	case "sell", "卖出":
		return TradeSell, nil
	}
	return "", fmt.Errorf("未知的交易方向: %q", s)
}

// TradeRecord 交易记录，盈亏字段只在匹配到买入的卖出记录上设置
type TradeRecord struct {
	ID            int64     `json:"id,omitempty"`
	StockCode     string    `json:"stockCode"`
	StockName     string    `json:"stockName"`
	Type          TradeType `json:"type"`
	Price         float64   `json:"price"`
	Quantity      float64   `json:"quantity"`
	Date          time.Time `json:"date"`
	Reason        string    `json:"reason"`
	Notes         string    `json:"notes"`
	Tags          []string  `json:"tags"`
	IsProfit      *bool     `json:"isProfit,omitempty"`
	ProfitAmount  *float64  `json:"profitAmount,omitempty"`
	ProfitPercent *float64  `json:"profitPercent,omitempty"`
	HoldDays      *int      `json:"holdDays,omitempty"`
}

// Matched 是否已计算盈亏
func (t TradeRecord) Matched() bool { return t.IsProfit != nil }

// ClearProfit 清除盈亏字段
func (t *TradeRecord) ClearProfit() {
	t.IsProfit = nil
	t.ProfitAmount = nil
	t.ProfitPercent = nil
	t.HoldDays = nil
}

// Strategy 交易策略
type Strategy struct {
	ID          int64             `json:"id,omitempty"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Date        time.Time         `json:"date"`
	Stocks      []StrategyStock   `json:"stocks"`
	Parameters  map[string]string `json:"parameters"`
	Tags        []string          `json:"tags"`
}

// StrategyStock 策略关注的个股
type StrategyStock struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Reason      string         `json:"reason"`
	Sector      string         `json:"sector,omitempty"`
	Position    SectorPosition `json:"position,omitempty"`
	TargetPrice *float64       `json:"targetPrice,omitempty"`
	StopLoss    *float64       `json:"stopLoss,omitempty"`
}
