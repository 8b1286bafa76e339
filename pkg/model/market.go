// pkg/model/market.go
package model

import (
	"time"
)

// Status 涨跌状态
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// StatusOf 根据涨跌值推导状态，只有严格大于0才算上涨
func StatusOf(change float64) Status {
	if change > 0 {
		return StatusUp
	}
	return StatusDown
}

// MarketIndex 指数数据
type MarketIndex struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Value          float64   `json:"value"`
	Change         float64   `json:"change"`
	ChangePercent  float64   `json:"changePercent"`
	Status         Status    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	HistoricalData []Kline   `json:"historicalData"`
}

// SectorStage 板块阶段
type SectorStage string

const (
	StageWatch   SectorStage = "观察"
	StageStart   SectorStage = "启动"
	StageBurst   SectorStage = "爆发"
	StageDiverge SectorStage = "分歧"
	StageRebound SectorStage = "回流"
)

// Valid 是否为已知阶段
func (s SectorStage) Valid() bool {
	switch s {
	case StageWatch, StageStart, StageBurst, StageDiverge, StageRebound:
		return true
	}
	return false
}

// SectorPosition 板块内地位
type SectorPosition string

const (
	PositionLeader  SectorPosition = "中军股"
	PositionHeight  SectorPosition = "高度股"
	PositionElastic SectorPosition = "弹性股"
	PositionCatchUp SectorPosition = "低位补涨"
)

// SectorStock 板块内股票
type SectorStock struct {
	Code     string         `json:"code"`
	Name     string         `json:"name"`
	Position SectorPosition `json:"position"`
}

// Sector 板块数据
type Sector struct {
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	Change    float64       `json:"change"`
	Status    Status        `json:"status"`
	HotDays   int           `json:"hotDays"`
	Stage     SectorStage   `json:"stage"`
	Stocks    []SectorStock `json:"stocks"`
	Timestamp time.Time     `json:"timestamp"`
}

// StockAt 返回板块中第一个处于指定地位的股票
func (s Sector) StockAt(position SectorPosition) (SectorStock, bool) {
	for _, stock := range s.Stocks {
		if stock.Position == position {
			return stock, true
		}
	}
	return SectorStock{}, false
}

// CoreStock 核心股展示数据
type CoreStock struct {
	Name          string  `json:"name"`
	Code          string  `json:"code"`
	ChangePercent float64 `json:"changePercent"`
}

// CoreStocks 中军/高度/弹性三只核心股
type CoreStocks struct {
	Leader  CoreStock `json:"leader"`
	Height  CoreStock `json:"height"`
	Elastic CoreStock `json:"elastic"`
}

// HotSector 带核心股信息的热门板块
type HotSector struct {
	Sector
	ID         string     `json:"id"`
	CoreStocks CoreStocks `json:"coreStocks"`
}

// UpStocks 上涨家数
type UpStocks struct {
	Value   int     `json:"value"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// YesterdayLimit 昨日连板表现
type YesterdayLimit struct {
	Success int     `json:"success"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// LimitStat 涨停/跌停家数
type LimitStat struct {
	Value   int     `json:"value"`
	Percent float64 `json:"percent"`
}

// ExampleStock 赚钱/亏钱效应代表个股
type ExampleStock struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Code          string  `json:"code"`
	ChangePercent float64 `json:"changePercent"`
}

// Effect 赚钱效应或亏钱效应
type Effect struct {
	Summary       string         `json:"summary"`
	Description   string         `json:"description"`
	ExampleStocks []ExampleStock `json:"exampleStocks"`
}

// MarketSentiment 单日市场情绪快照，Date 为 2006-01-02 格式的日期键
type MarketSentiment struct {
	Date           string         `json:"date"`
	UpStocks       UpStocks       `json:"upStocks"`
	YesterdayLimit YesterdayLimit `json:"yesterdayLimit"`
	LimitUp        LimitStat      `json:"limitUp"`
	LimitDown      LimitStat      `json:"limitDown"`
	ProfitEffect   Effect         `json:"profitEffect"`
	LossEffect     Effect         `json:"lossEffect"`
}

// EffectView 情绪快照中赚钱/亏钱效应部分的投影
type EffectView struct {
	Date          string         `json:"date"`
	UpStocks      UpStocks       `json:"upStocks"`
	LimitUp       LimitStat      `json:"limitUp"`
	LimitDown     LimitStat      `json:"limitDown"`
	Summary       string         `json:"summary"`
	Description   string         `json:"description"`
	ExampleStocks []ExampleStock `json:"exampleStocks"`
}
