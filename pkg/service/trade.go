// pkg/service/trade.go
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"StockReview/pkg/model"
	"StockReview/pkg/recordstore"
)

// MatchPolicy 卖出记录与买入记录的匹配方式
type MatchPolicy string

const (
	// MatchFirstBuy 总是匹配日期最早的买入，不记录该买入是否已被之前的卖出匹配
	MatchFirstBuy MatchPolicy = "first_buy"
	// MatchFIFOLots 按先进先出扣减持仓，已被之前卖出消耗的买入不再参与匹配
	MatchFIFOLots MatchPolicy = "fifo_lots"
)

// TradeService 交易记录、交易分析、策略
type TradeService struct {
	trades     *recordstore.Typed[model.TradeRecord]
	strategies *recordstore.Typed[model.Strategy]
	policy     MatchPolicy
	now        Clock
}

// NewTradeService 创建交易数据服务
func NewTradeService(records recordstore.Store, policy MatchPolicy, now Clock) *TradeService {
	if policy != MatchFIFOLots {
		policy = MatchFirstBuy
	}
	return &TradeService{
		trades:     recordstore.NewTyped[model.TradeRecord](records, recordstore.TradeRecords),
		strategies: recordstore.NewTyped[model.Strategy](records, recordstore.Strategies),
		policy:     policy,
		now:        now,
	}
}

// Policy 当前匹配方式
func (s *TradeService) Policy() MatchPolicy { return s.policy }

func (s *TradeService) normalize(in model.TradeRecord) (model.TradeRecord, error) {
	t, err := model.ParseTradeType(string(in.Type))
	if err != nil {
		return in, invalid("type", err.Error())
	}
	in.Type = t
	rec := model.NewTradeRecord(in, s.now())
	switch {
	case rec.StockCode == "":
		return rec, invalid("stockCode", "不能为空")
	case rec.Price <= 0:
		return rec, invalid("price", "必须大于0")
	case rec.Quantity <= 0:
		return rec, invalid("quantity", "必须大于0")
	}
	rec.ClearProfit()
	return rec, nil
}

// SaveTradeRecord 保存交易记录并返回分配的 ID。卖出记录会匹配之前的买入并计算盈亏
func (s *TradeService) SaveTradeRecord(ctx context.Context, in model.TradeRecord) (int64, error) {
	rec, err := s.normalize(in)
	if err != nil {
		return 0, err
	}
	rec.ID = 0
	if rec.Type == model.TradeSell {
		if err := s.match(ctx, &rec); err != nil {
			return 0, err
		}
	}

	key, err := s.trades.Add(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("保存交易记录失败: %w", err)
	}
	id, err := key.Int64()
	if err != nil {
		return 0, fmt.Errorf("保存交易记录失败: %w", err)
	}
	log.Info().Int64("id", id).Str("code", rec.StockCode).Str("type", string(rec.Type)).Msg("保存交易记录")
	return id, nil
}

// match 为卖出记录计算盈亏，找不到可匹配的买入时盈亏字段保持为空
func (s *TradeService) match(ctx context.Context, sell *model.TradeRecord) error {
	history, err := s.trades.ByIndex(ctx, "stockCode", sell.StockCode)
	if err != nil {
		return fmt.Errorf("查询历史交易失败: %w", err)
	}
	sell.ClearProfit()

	// 只考虑日期不晚于卖出的记录
	var events []model.TradeRecord
	for _, r := range history {
		if r.ID == sell.ID || r.Date.After(sell.Date) {
			continue
		}
		events = append(events, r)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})

	var (
		price = decimal.NewFromFloat(sell.Price)
		qty   = decimal.NewFromFloat(sell.Quantity)
		cost  decimal.Decimal
		since time.Time
	)
	switch s.policy {
	case MatchFIFOLots:
		var open lots
		for _, e := range events {
			if e.Type == model.TradeBuy {
				q := decimal.NewFromFloat(e.Quantity)
				open = append(open, lot{Date: e.Date, Quantity: q, Cost: decimal.NewFromFloat(e.Price).Mul(q)})
				continue
			}
			// 同一天的卖出只有 ID 更小的才算在之前
			if sell.ID == 0 || e.Date.Before(sell.Date) || e.ID < sell.ID {
				open = open.sell(decimal.NewFromFloat(e.Quantity))
			}
		}
		if len(open) == 0 {
			return nil
		}
		var matched decimal.Decimal
		matched, cost, since = open.fifoCostOfSelling(qty)
		qty = matched
	default:
		var first *model.TradeRecord
		for i := range events {
			if events[i].Type == model.TradeBuy {
				first = &events[i]
				break
			}
		}
		if first == nil {
			return nil
		}
		cost = decimal.NewFromFloat(first.Price).Mul(decimal.NewFromFloat(first.Quantity))
		since = first.Date
	}

	amount := price.Mul(qty).Sub(cost)
	var percent decimal.Decimal
	if !cost.IsZero() {
		percent = amount.Div(cost).Mul(decimal.NewFromInt(100))
	}
	isProfit := amount.IsPositive()
	profit := amount.InexactFloat64()
	pct := percent.InexactFloat64()
	hold := model.HoldDays(since, sell.Date)
	sell.IsProfit = &isProfit
	sell.ProfitAmount = &profit
	sell.ProfitPercent = &pct
	sell.HoldDays = &hold
	return nil
}

// GetTradeRecord 获取单条交易记录
func (s *TradeService) GetTradeRecord(ctx context.Context, id int64) (model.TradeRecord, error) {
	rec, ok, err := s.trades.Get(ctx, recordstore.IntKey(id))
	if err != nil {
		return rec, fmt.Errorf("获取交易记录失败: %w", err)
	}
	if !ok {
		return rec, notFound("交易记录", id)
	}
	return rec, nil
}

func byDateDesc(records []model.TradeRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
}

// GetTradeRecords 获取全部交易记录，按日期降序
func (s *TradeService) GetTradeRecords(ctx context.Context) ([]model.TradeRecord, error) {
	records, err := s.trades.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取交易记录失败: %w", err)
	}
	byDateDesc(records)
	return records, nil
}

// GetTradeRecordsByStock 获取某只股票的交易记录，按日期升序，tradeType 为空时不过滤
func (s *TradeService) GetTradeRecordsByStock(ctx context.Context, code string, tradeType model.TradeType) ([]model.TradeRecord, error) {
	records, err := s.trades.ByIndex(ctx, "stockCode", code)
	if err != nil {
		return nil, fmt.Errorf("查询股票交易记录失败: %w", err)
	}
	if tradeType != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Type == tradeType {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

// GetTradeRecordsByDateRange 获取日期在 [start, end] 内的交易记录，按日期降序
func (s *TradeService) GetTradeRecordsByDateRange(ctx context.Context, start, end time.Time) ([]model.TradeRecord, error) {
	records, err := s.trades.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取交易记录失败: %w", err)
	}
	result := make([]model.TradeRecord, 0, len(records))
	for _, r := range records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		result = append(result, r)
	}
	byDateDesc(result)
	return result, nil
}

// UpdateTradeRecord 修改交易记录，保留 ID，卖出记录按其余记录重新计算盈亏
func (s *TradeService) UpdateTradeRecord(ctx context.Context, id int64, in model.TradeRecord) (model.TradeRecord, error) {
	if _, err := s.GetTradeRecord(ctx, id); err != nil {
		return model.TradeRecord{}, err
	}
	rec, err := s.normalize(in)
	if err != nil {
		return rec, err
	}
	rec.ID = id
	if rec.Type == model.TradeSell {
		if err := s.match(ctx, &rec); err != nil {
			return rec, err
		}
	}
	if _, err := s.trades.Put(ctx, rec); err != nil {
		return rec, fmt.Errorf("更新交易记录失败: %w", err)
	}
	return rec, nil
}

// DeleteTradeRecord 删除交易记录，不会重新计算其他卖出记录
func (s *TradeService) DeleteTradeRecord(ctx context.Context, id int64) error {
	if err := s.trades.Delete(ctx, recordstore.IntKey(id)); err != nil {
		return fmt.Errorf("删除交易记录失败: %w", err)
	}
	return nil
}

// GetTradeAnalysis 统计交易绩效，start 和 end 都给出时只统计区间内的记录
func (s *TradeService) GetTradeAnalysis(ctx context.Context, start, end *time.Time) (model.TradeAnalysis, error) {
	var (
		records []model.TradeRecord
		err     error
	)
	if start != nil && end != nil {
		records, err = s.GetTradeRecordsByDateRange(ctx, *start, *end)
	} else {
		records, err = s.trades.All(ctx)
		if err != nil {
			err = fmt.Errorf("获取交易记录失败: %w", err)
		}
	}
	if err != nil {
		return model.TradeAnalysis{}, err
	}
	return model.AnalyzeTrades(records), nil
}

func (s *TradeService) normalizeStrategy(in model.Strategy) (model.Strategy, error) {
	st := model.NewStrategy(in, s.now())
	if strings.TrimSpace(st.Name) == "" {
		return st, invalid("name", "不能为空")
	}
	return st, nil
}

// SaveStrategy 保存策略并返回分配的 ID
func (s *TradeService) SaveStrategy(ctx context.Context, in model.Strategy) (int64, error) {
	st, err := s.normalizeStrategy(in)
	if err != nil {
		return 0, err
	}
	st.ID = 0
	key, err := s.strategies.Add(ctx, st)
	if err != nil {
		return 0, fmt.Errorf("保存策略失败: %w", err)
	}
	return key.Int64()
}

// GetStrategy 获取单个策略
func (s *TradeService) GetStrategy(ctx context.Context, id int64) (model.Strategy, error) {
	st, ok, err := s.strategies.Get(ctx, recordstore.IntKey(id))
	if err != nil {
		return st, fmt.Errorf("获取策略失败: %w", err)
	}
	if !ok {
		return st, notFound("策略", id)
	}
	return st, nil
}

func strategiesByDateDesc(list []model.Strategy) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
}

// GetStrategies 获取全部策略，按日期降序
func (s *TradeService) GetStrategies(ctx context.Context) ([]model.Strategy, error) {
	list, err := s.strategies.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取策略失败: %w", err)
	}
	strategiesByDateDesc(list)
	return list, nil
}

// GetStrategiesByDate 获取某一天的策略
func (s *TradeService) GetStrategiesByDate(ctx context.Context, day time.Time) ([]model.Strategy, error) {
	list, err := s.strategies.ByIndex(ctx, "date", model.StartOfDay(day))
	if err != nil {
		return nil, fmt.Errorf("获取策略失败: %w", err)
	}
	return list, nil
}

// GetStrategiesByType 按类型获取策略，按日期降序
func (s *TradeService) GetStrategiesByType(ctx context.Context, strategyType string) ([]model.Strategy, error) {
	list, err := s.strategies.ByIndex(ctx, "type", strategyType)
	if err != nil {
		return nil, fmt.Errorf("获取策略失败: %w", err)
	}
	strategiesByDateDesc(list)
	return list, nil
}

// UpdateStrategy 更新策略
func (s *TradeService) UpdateStrategy(ctx context.Context, in model.Strategy) (model.Strategy, error) {
	if _, err := s.GetStrategy(ctx, in.ID); err != nil {
		return model.Strategy{}, err
	}
	st, err := s.normalizeStrategy(in)
	if err != nil {
		return st, err
	}
	if _, err := s.strategies.Put(ctx, st); err != nil {
		return st, fmt.Errorf("更新策略失败: %w", err)
	}
	return st, nil
}

// DeleteStrategy 删除策略
func (s *TradeService) DeleteStrategy(ctx context.Context, id int64) error {
	if err := s.strategies.Delete(ctx, recordstore.IntKey(id)); err != nil {
		return fmt.Errorf("删除策略失败: %w", err)
	}
	return nil
}
