// pkg/service/market.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"StockReview/pkg/model"
	"StockReview/pkg/recordstore"
)

const (
	defaultHotSectors     = 5
	defaultProfitSummary  = "市场赚钱效应分析"
	defaultLossSummary    = "市场亏钱效应分析"
	defaultEffectDescribe = "暂无详细描述"
)

// StockLookup 按代码查询个股，热门板块补充核心股涨跌幅时使用
type StockLookup interface {
	GetStock(ctx context.Context, code string) (model.Stock, error)
}

// MarketService 指数、板块、市场情绪
type MarketService struct {
	indices   *recordstore.Typed[model.MarketIndex]
	sectors   *recordstore.Typed[model.Sector]
	sentiment *recordstore.Typed[model.MarketSentiment]
	stocks    StockLookup
	now       Clock
}

// NewMarketService 创建市场数据服务
func NewMarketService(records recordstore.Store, stocks StockLookup, now Clock) *MarketService {
	return &MarketService{
		indices:   recordstore.NewTyped[model.MarketIndex](records, recordstore.MarketIndices),
		sectors:   recordstore.NewTyped[model.Sector](records, recordstore.Sectors),
		sentiment: recordstore.NewTyped[model.MarketSentiment](records, recordstore.MarketSentiment),
		stocks:    stocks,
		now:       now,
	}
}

// SectorQuery 板块查询条件
type SectorQuery struct {
	Stage model.SectorStage
	Limit int
}

func validateIndex(in model.MarketIndex) error {
	if in.Code == "" {
		return invalid("code", "不能为空")
	}
	return nil
}

// SaveMarketIndices 保存指数，代码已存在时失败
func (s *MarketService) SaveMarketIndices(ctx context.Context, in ...model.MarketIndex) error {
	for _, data := range in {
		index := model.NewMarketIndex(data, s.now())
		if err := validateIndex(index); err != nil {
			return err
		}
		if _, err := s.indices.Add(ctx, index); err != nil {
			return fmt.Errorf("保存指数失败: %w", err)
		}
	}
	log.Info().Int("count", len(in)).Msg("保存指数")
	return nil
}

// GetMarketIndices 获取全部指数
func (s *MarketService) GetMarketIndices(ctx context.Context) ([]model.MarketIndex, error) {
	indices, err := s.indices.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取指数失败: %w", err)
	}
	return indices, nil
}

// GetMarketIndex 获取单个指数
func (s *MarketService) GetMarketIndex(ctx context.Context, code string) (model.MarketIndex, error) {
	index, ok, err := s.indices.Get(ctx, recordstore.Key(code))
	if err != nil {
		return index, fmt.Errorf("获取指数失败: %w", err)
	}
	if !ok {
		return index, notFound("指数", code)
	}
	return index, nil
}

// UpdateMarketIndex 更新指数，不存在时插入
func (s *MarketService) UpdateMarketIndex(ctx context.Context, in model.MarketIndex) (model.MarketIndex, error) {
	index := model.NewMarketIndex(in, s.now())
	if err := validateIndex(index); err != nil {
		return index, err
	}
	if _, err := s.indices.Put(ctx, index); err != nil {
		return index, fmt.Errorf("更新指数失败: %w", err)
	}
	return index, nil
}

// DeleteMarketIndex 删除指数
func (s *MarketService) DeleteMarketIndex(ctx context.Context, code string) error {
	if err := s.indices.Delete(ctx, recordstore.Key(code)); err != nil {
		return fmt.Errorf("删除指数失败: %w", err)
	}
	return nil
}

func validateSector(in model.Sector) error {
	if in.Code == "" {
		return invalid("code", "不能为空")
	}
	if !in.Stage.Valid() {
		return invalid("stage", fmt.Sprintf("未知的板块阶段 %q", in.Stage))
	}
	return nil
}

// SaveSectors 保存板块，代码已存在时失败
func (s *MarketService) SaveSectors(ctx context.Context, in ...model.Sector) error {
	for _, data := range in {
		sector := model.NewSector(data, s.now())
		if err := validateSector(sector); err != nil {
			return err
		}
		if _, err := s.sectors.Add(ctx, sector); err != nil {
			return fmt.Errorf("保存板块失败: %w", err)
		}
	}
	log.Info().Int("count", len(in)).Msg("保存板块")
	return nil
}

// GetSectors 按热门天数降序获取板块
func (s *MarketService) GetSectors(ctx context.Context, q SectorQuery) ([]model.Sector, error) {
	var (
		sectors []model.Sector
		err     error
	)
	if q.Stage != "" {
		sectors, err = s.sectors.ByIndex(ctx, "stage", q.Stage)
	} else {
		sectors, err = s.sectors.All(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("获取板块失败: %w", err)
	}
	sort.SliceStable(sectors, func(i, j int) bool { return sectors[i].HotDays > sectors[j].HotDays })
	if q.Limit > 0 && len(sectors) > q.Limit {
		sectors = sectors[:q.Limit]
	}
	return sectors, nil
}

// GetSector 获取单个板块
func (s *MarketService) GetSector(ctx context.Context, code string) (model.Sector, error) {
	sector, ok, err := s.sectors.Get(ctx, recordstore.Key(code))
	if err != nil {
		return sector, fmt.Errorf("获取板块失败: %w", err)
	}
	if !ok {
		return sector, notFound("板块", code)
	}
	return sector, nil
}

// GetHotSectors 获取热门板块并补充核心股涨跌幅。
// 个股查询失败或该地位没有股票时使用板块自身涨跌幅
func (s *MarketService) GetHotSectors(ctx context.Context, limit int) ([]model.HotSector, error) {
	if limit <= 0 {
		limit = defaultHotSectors
	}
	sectors, err := s.GetSectors(ctx, SectorQuery{Limit: limit})
	if err != nil {
		return nil, err
	}

	result := make([]model.HotSector, 0, len(sectors))
	for _, sector := range sectors {
		result = append(result, model.HotSector{
			Sector: sector,
			ID:     sector.Code,
			CoreStocks: model.CoreStocks{
				Leader:  s.coreStock(ctx, sector, model.PositionLeader),
				Height:  s.coreStock(ctx, sector, model.PositionHeight),
				Elastic: s.coreStock(ctx, sector, model.PositionElastic),
			},
		})
	}
	return result, nil
}

func (s *MarketService) coreStock(ctx context.Context, sector model.Sector, position model.SectorPosition) model.CoreStock {
	core := model.CoreStock{ChangePercent: sector.Change}
	member, ok := sector.StockAt(position)
	if !ok {
		return core
	}
	core.Name, core.Code = member.Name, member.Code
	if s.stocks == nil {
		return core
	}
	stock, err := s.stocks.GetStock(ctx, member.Code)
	if err != nil {
		log.Warn().Err(err).Str("sector", sector.Code).Str("code", member.Code).Msg("获取核心股数据失败")
		return core
	}
	if stock.ChangePercent != 0 {
		core.ChangePercent = stock.ChangePercent
	}
	return core
}

// UpdateSector 更新板块，不存在时插入
func (s *MarketService) UpdateSector(ctx context.Context, in model.Sector) (model.Sector, error) {
	sector := model.NewSector(in, s.now())
	if err := validateSector(sector); err != nil {
		return sector, err
	}
	if _, err := s.sectors.Put(ctx, sector); err != nil {
		return sector, fmt.Errorf("更新板块失败: %w", err)
	}
	return sector, nil
}

// DeleteSector 删除板块，不会删除板块内的个股
func (s *MarketService) DeleteSector(ctx context.Context, code string) error {
	if err := s.sectors.Delete(ctx, recordstore.Key(code)); err != nil {
		return fmt.Errorf("删除板块失败: %w", err)
	}
	return nil
}

// newSentiment 日期给出时必须能解析，主键总是 2006-01-02 格式
func (s *MarketService) newSentiment(in model.MarketSentiment) (model.MarketSentiment, error) {
	if in.Date != "" {
		if _, err := model.ParseDay(in.Date); err != nil {
			return in, invalid("date", fmt.Sprintf("无效的日期 %q", in.Date))
		}
	}
	return model.NewMarketSentiment(in, s.now()), nil
}

// SaveMarketSentiment 保存情绪快照，同一天已存在时失败
func (s *MarketService) SaveMarketSentiment(ctx context.Context, in model.MarketSentiment) (model.MarketSentiment, error) {
	sentiment, err := s.newSentiment(in)
	if err != nil {
		return sentiment, err
	}
	if _, err := s.sentiment.Add(ctx, sentiment); err != nil {
		return sentiment, fmt.Errorf("保存市场情绪失败: %w", err)
	}
	return sentiment, nil
}

// GetMarketSentiment 获取指定日期的情绪快照，date 为 nil 时取日期最大的一条。
// 没有数据时返回 nil
func (s *MarketService) GetMarketSentiment(ctx context.Context, date *time.Time) (*model.MarketSentiment, error) {
	if date != nil {
		sentiment, ok, err := s.sentiment.Get(ctx, recordstore.Key(model.DayKey(*date)))
		if err != nil {
			return nil, fmt.Errorf("获取市场情绪失败: %w", err)
		}
		if !ok {
			return nil, nil
		}
		return &sentiment, nil
	}

	all, err := s.sentiment.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取市场情绪失败: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	latest := all[0]
	for _, item := range all[1:] {
		if item.Date > latest.Date {
			latest = item
		}
	}
	return &latest, nil
}

// UpdateMarketSentiment 更新情绪快照，不存在时插入
func (s *MarketService) UpdateMarketSentiment(ctx context.Context, in model.MarketSentiment) (model.MarketSentiment, error) {
	sentiment, err := s.newSentiment(in)
	if err != nil {
		return sentiment, err
	}
	if _, err := s.sentiment.Put(ctx, sentiment); err != nil {
		return sentiment, fmt.Errorf("更新市场情绪失败: %w", err)
	}
	return sentiment, nil
}

// DeleteMarketSentiment 删除指定日期的情绪快照
func (s *MarketService) DeleteMarketSentiment(ctx context.Context, date time.Time) error {
	if err := s.sentiment.Delete(ctx, recordstore.Key(model.DayKey(date))); err != nil {
		return fmt.Errorf("删除市场情绪失败: %w", err)
	}
	return nil
}

func effectView(m *model.MarketSentiment, e model.Effect, summary string) model.EffectView {
	view := model.EffectView{
		Date:          m.Date,
		UpStocks:      m.UpStocks,
		LimitUp:       m.LimitUp,
		LimitDown:     m.LimitDown,
		Summary:       e.Summary,
		Description:   e.Description,
		ExampleStocks: e.ExampleStocks,
	}
	if view.Summary == "" {
		view.Summary = summary
	}
	if view.Description == "" {
		view.Description = defaultEffectDescribe
	}
	if view.ExampleStocks == nil {
		view.ExampleStocks = []model.ExampleStock{}
	}
	return view
}

// GetMarketProfitEffect 赚钱效应，没有情绪数据时返回 nil
func (s *MarketService) GetMarketProfitEffect(ctx context.Context, date *time.Time) (*model.EffectView, error) {
	m, err := s.GetMarketSentiment(ctx, date)
	if err != nil || m == nil {
		return nil, err
	}
	view := effectView(m, m.ProfitEffect, defaultProfitSummary)
	return &view, nil
}

// GetMarketLossEffect 亏钱效应，没有情绪数据时返回 nil
func (s *MarketService) GetMarketLossEffect(ctx context.Context, date *time.Time) (*model.EffectView, error) {
	m, err := s.GetMarketSentiment(ctx, date)
	if err != nil || m == nil {
		return nil, err
	}
	view := effectView(m, m.LossEffect, defaultLossSummary)
	return &view, nil
}

// AddStockToProfitEffect 向最新情绪快照的赚钱效应追加代表个股。读改写不是原子的，并发时后写者覆盖
func (s *MarketService) AddStockToProfitEffect(ctx context.Context, stock model.ExampleStock) (*model.EffectView, error) {
	if err := s.appendExample(ctx, stock, func(m *model.MarketSentiment) *model.Effect { return &m.ProfitEffect }); err != nil {
		return nil, err
	}
	return s.GetMarketProfitEffect(ctx, nil)
}

// AddStockToLossEffect 向最新情绪快照的亏钱效应追加代表个股
func (s *MarketService) AddStockToLossEffect(ctx context.Context, stock model.ExampleStock) (*model.EffectView, error) {
	if err := s.appendExample(ctx, stock, func(m *model.MarketSentiment) *model.Effect { return &m.LossEffect }); err != nil {
		return nil, err
	}
	return s.GetMarketLossEffect(ctx, nil)
}

func (s *MarketService) appendExample(ctx context.Context, stock model.ExampleStock, pick func(*model.MarketSentiment) *model.Effect) error {
	if stock.Code == "" {
		return invalid("code", "不能为空")
	}
	if stock.ID == "" {
		stock.ID = stock.Code
	}
	latest, err := s.GetMarketSentiment(ctx, nil)
	if err != nil {
		return err
	}
	if latest == nil {
		return ErrNoSentiment
	}
	effect := pick(latest)
	effect.ExampleStocks = append(effect.ExampleStocks, stock)
	if _, err := s.UpdateMarketSentiment(ctx, *latest); err != nil {
		return err
	}
	log.Info().Str("date", latest.Date).Str("code", stock.Code).Msg("追加效应代表个股")
	return nil
}
