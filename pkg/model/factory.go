// pkg/model/factory.go
package model

import (
	"sort"
	"strings"
	"time"
)

// 工厂函数把外部输入整理成规范实体：补齐默认值、推导状态、空列表不为 nil。
// now 只在输入时间为零值时使用。

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}

func strs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewMarketIndex 规范化指数数据
func NewMarketIndex(in MarketIndex, now time.Time) MarketIndex {
	in.Code = strings.TrimSpace(in.Code)
	in.Status = StatusOf(in.Change)
	in.Timestamp = orNow(in.Timestamp, now)
	in.HistoricalData = NormalizeKlines(in.HistoricalData)
	return in
}

// NewSector 规范化板块数据
func NewSector(in Sector, now time.Time) Sector {
	in.Code = strings.TrimSpace(in.Code)
	in.Status = StatusOf(in.Change)
	if in.HotDays < 0 {
		in.HotDays = 0
	}
	if in.Stage == "" {
		in.Stage = StageWatch
	}
	stocks := make([]SectorStock, 0, len(in.Stocks))
	for _, s := range in.Stocks {
		if s.Code == "" {
			continue
		}
		stocks = append(stocks, s)
	}
	in.Stocks = stocks
	in.Timestamp = orNow(in.Timestamp, now)
	return in
}

func newEffect(e Effect) Effect {
	if e.ExampleStocks == nil {
		e.ExampleStocks = []ExampleStock{}
	}
	return e
}

// NewMarketSentiment 规范化情绪快照，日期缺省为当天
func NewMarketSentiment(in MarketSentiment, now time.Time) MarketSentiment {
	if in.Date == "" {
		in.Date = DayKey(now)
	} else if t, err := ParseDay(in.Date); err == nil {
		in.Date = DayKey(t)
	}
	in.ProfitEffect = newEffect(in.ProfitEffect)
	in.LossEffect = newEffect(in.LossEffect)
	return in
}

// NewStock 规范化个股数据
func NewStock(in Stock, now time.Time) Stock {
	in.Code = strings.TrimSpace(in.Code)
	in.Status = StatusOf(in.Change)
	in.Tags = strs(in.Tags)
	in.Timestamp = orNow(in.Timestamp, now)
	if in.Data != nil {
		klines := NormalizeKlines(in.Data.Klines)
		in.Data = &StockData{
			Klines:              klines,
			TechnicalIndicators: CalculateTechnicalIndicators(klines),
		}
	}
	return in
}

// NewKline 规范化单根K线，最高/最低价缺失时由开收盘价补齐
func NewKline(in Kline) Kline {
	if in.High == 0 {
		in.High = max(in.Open, in.Close)
	}
	if in.Low == 0 {
		in.Low = min(in.Open, in.Close)
	}
	return in
}

// NormalizeKlines 规范化并按日期升序排列
func NormalizeKlines(in []Kline) []Kline {
	out := make([]Kline, len(in))
	for i, k := range in {
		out[i] = NewKline(k)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// NewTradeRecord 规范化交易记录。盈亏字段由交易服务计算，这里只透传
func NewTradeRecord(in TradeRecord, now time.Time) TradeRecord {
	in.StockCode = strings.TrimSpace(in.StockCode)
	if t, err := ParseTradeType(string(in.Type)); err == nil {
		in.Type = t
	}
	in.Date = orNow(in.Date, now)
	in.Tags = strs(in.Tags)
	if in.Type == TradeBuy {
		in.ClearProfit()
	}
	return in
}

// NewStrategy 规范化策略，日期截断到当天零点
func NewStrategy(in Strategy, now time.Time) Strategy {
	in.Date = StartOfDay(orNow(in.Date, now))
	stocks := make([]StrategyStock, 0, len(in.Stocks))
	for _, s := range in.Stocks {
		stocks = append(stocks, NewStrategyStock(s))
	}
	in.Stocks = stocks
	if in.Parameters == nil {
		in.Parameters = map[string]string{}
	}
	in.Tags = strs(in.Tags)
	return in
}

// NewStrategyStock 规范化策略个股
func NewStrategyStock(in StrategyStock) StrategyStock {
	in.Code = strings.TrimSpace(in.Code)
	return in
}

// NewKnowledgeEntry 规范化知识条目
func NewKnowledgeEntry(in KnowledgeEntry, now time.Time) KnowledgeEntry {
	if in.Type == "" {
		in.Type = KnowledgeNote
	}
	in.Tags = strs(in.Tags)
	in.RelatedStocks = strs(in.RelatedStocks)
	in.RelatedSectors = strs(in.RelatedSectors)
	in.CreatedAt = orNow(in.CreatedAt, now)
	in.UpdatedAt = orNow(in.UpdatedAt, now)
	if in.UpdatedAt.Before(in.CreatedAt) {
		in.UpdatedAt = in.CreatedAt
	}
	return in
}

// DefaultChartPreferences 默认图表偏好
func DefaultChartPreferences() ChartPreferences {
	return ChartPreferences{
		KlineType:        "candle",
		IndicatorVisible: true,
		VolumeVisible:    true,
		MAVisible:        true,
	}
}

// DefaultNotificationSettings 默认通知偏好
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled:            true,
		MarketOpen:         true,
		MarketClose:        true,
		FavoriteStockAlert: true,
		LimitUpDown:        true,
	}
}

// DefaultUserSettings 硬编码的默认设置
func DefaultUserSettings(now time.Time) UserSettings {
	return NewUserSettings(UserSettings{}, now)
}

// NewUserSettings 规范化用户设置
func NewUserSettings(in UserSettings, now time.Time) UserSettings {
	if in.ID == "" {
		in.ID = SettingsID
	}
	if in.Theme == "" {
		in.Theme = ThemeLight
	}
	if in.DefaultModule == "" {
		in.DefaultModule = DefaultModule
	}
	if in.FavoriteStocks == nil {
		in.FavoriteStocks = []string{}
	}
	if in.FavoriteSectors == nil {
		in.FavoriteSectors = []string{}
	}
	if in.ChartPreferences == nil {
		p := DefaultChartPreferences()
		in.ChartPreferences = &p
	}
	if in.NotificationSettings == nil {
		n := DefaultNotificationSettings()
		in.NotificationSettings = &n
	}
	in.LastUpdated = orNow(in.LastUpdated, now)
	return in
}

// NewExportRecord 规范化导出记录
func NewExportRecord(in ExportRecord, now time.Time) ExportRecord {
	if in.Type == "" {
		in.Type = "knowledge"
	}
	if in.Format == "" {
		in.Format = FormatJSON
	}
	in.Date = orNow(in.Date, now)
	in.Size = len(in.Content)
	return in
}
