// pkg/service/stock.go
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"StockReview/pkg/kvstore"
	"StockReview/pkg/model"
	"StockReview/pkg/recordstore"
)

// StockService 个股数据及自选股
type StockService struct {
	stocks *recordstore.Typed[model.Stock]
	kv     *kvstore.Store
	user   *UserService
	now    Clock
}

// NewStockService 创建个股数据服务
func NewStockService(records recordstore.Store, kv *kvstore.Store, user *UserService, now Clock) *StockService {
	return &StockService{
		stocks: recordstore.NewTyped[model.Stock](records, recordstore.Stocks),
		kv:     kv,
		user:   user,
		now:    now,
	}
}

func validateStock(in model.Stock) error {
	if in.Code == "" {
		return invalid("code", "不能为空")
	}
	return nil
}

// SaveStocks 保存个股，代码已存在时失败
func (s *StockService) SaveStocks(ctx context.Context, in ...model.Stock) error {
	for _, data := range in {
		stock := model.NewStock(data, s.now())
		if err := validateStock(stock); err != nil {
			return err
		}
		if _, err := s.stocks.Add(ctx, stock); err != nil {
			return fmt.Errorf("保存股票失败: %w", err)
		}
	}
	log.Info().Int("count", len(in)).Msg("保存股票")
	return nil
}

// GetStock 获取单只股票
func (s *StockService) GetStock(ctx context.Context, code string) (model.Stock, error) {
	stock, ok, err := s.stocks.Get(ctx, recordstore.Key(code))
	if err != nil {
		return stock, fmt.Errorf("获取股票失败: %w", err)
	}
	if !ok {
		return stock, notFound("股票", code)
	}
	return stock, nil
}

// GetStocks 获取全部股票
func (s *StockService) GetStocks(ctx context.Context) ([]model.Stock, error) {
	stocks, err := s.stocks.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取股票失败: %w", err)
	}
	return stocks, nil
}

// GetStocksBySector 按所属板块查询
func (s *StockService) GetStocksBySector(ctx context.Context, sector string) ([]model.Stock, error) {
	stocks, err := s.stocks.ByIndex(ctx, "sector", sector)
	if err != nil {
		return nil, fmt.Errorf("查询板块股票失败: %w", err)
	}
	return stocks, nil
}

// GetStocksByTag 按标签查询
func (s *StockService) GetStocksByTag(ctx context.Context, tag string) ([]model.Stock, error) {
	stocks, err := s.stocks.ByIndex(ctx, "tags", tag)
	if err != nil {
		return nil, fmt.Errorf("查询标签股票失败: %w", err)
	}
	return stocks, nil
}

// SearchStocks 按代码或名称模糊搜索，不区分大小写，limit<=0 表示不限制
func (s *StockService) SearchStocks(ctx context.Context, keyword string, limit int) ([]model.Stock, error) {
	stocks, err := s.GetStocks(ctx)
	if err != nil {
		return nil, err
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	result := make([]model.Stock, 0)
	for _, stock := range stocks {
		if keyword == "" ||
			strings.Contains(strings.ToLower(stock.Code), keyword) ||
			strings.Contains(strings.ToLower(stock.Name), keyword) {
			result = append(result, stock)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpdateStock 更新股票，不存在时插入
func (s *StockService) UpdateStock(ctx context.Context, in model.Stock) (model.Stock, error) {
	stock := model.NewStock(in, s.now())
	if err := validateStock(stock); err != nil {
		return stock, err
	}
	if _, err := s.stocks.Put(ctx, stock); err != nil {
		return stock, fmt.Errorf("更新股票失败: %w", err)
	}
	return stock, nil
}

// DeleteStock 删除股票
func (s *StockService) DeleteStock(ctx context.Context, code string) error {
	if err := s.stocks.Delete(ctx, recordstore.Key(code)); err != nil {
		return fmt.Errorf("删除股票失败: %w", err)
	}
	return nil
}

// SaveStockKlines 保存K线并重新计算均线，股票不存在时返回 NotFoundError
func (s *StockService) SaveStockKlines(ctx context.Context, code string, klines []model.Kline) (model.StockData, error) {
	stock, err := s.GetStock(ctx, code)
	if err != nil {
		return model.StockData{}, err
	}
	normalized := model.NormalizeKlines(klines)
	stock.Data = &model.StockData{
		Klines:              normalized,
		TechnicalIndicators: model.CalculateTechnicalIndicators(normalized),
	}
	if _, err := s.stocks.Put(ctx, stock); err != nil {
		return model.StockData{}, fmt.Errorf("保存K线失败: %w", err)
	}
	log.Info().Str("code", code).Int("klines", len(normalized)).Msg("保存K线")
	return *stock.Data, nil
}

// GetStockKlines 获取K线，没有数据时返回空列表
func (s *StockService) GetStockKlines(ctx context.Context, code string) ([]model.Kline, error) {
	stock, err := s.GetStock(ctx, code)
	if err != nil {
		return nil, err
	}
	if stock.Data == nil {
		return []model.Kline{}, nil
	}
	return stock.Data.Klines, nil
}

// GetStockTechnicalIndicators 获取技术指标，没有K线时返回 nil
func (s *StockService) GetStockTechnicalIndicators(ctx context.Context, code string) (*model.TechnicalIndicators, error) {
	stock, err := s.GetStock(ctx, code)
	if err != nil {
		return nil, err
	}
	if stock.Data == nil {
		return nil, nil
	}
	return &stock.Data.TechnicalIndicators, nil
}

// favoriteCodes 自选股代码列表
func (s *StockService) favoriteCodes() []string {
	return s.kv.GetStrings(kvstore.KeyFavoriteStocks)
}

func (s *StockService) saveFavorites(ctx context.Context, codes []string) {
	if !s.kv.Save(kvstore.KeyFavoriteStocks, codes) {
		log.Warn().Msg("保存自选股失败")
	}
	if s.user == nil {
		return
	}
	if _, err := s.user.UpdateUserSettings(ctx, SettingsPatch{FavoriteStocks: codes}); err != nil {
		log.Warn().Err(err).Msg("同步自选股到用户设置失败")
	}
}

// GetFavoriteStocks 获取自选股详情，已删除的股票跳过
func (s *StockService) GetFavoriteStocks(ctx context.Context) ([]model.Stock, error) {
	codes := s.favoriteCodes()
	result := make([]model.Stock, 0, len(codes))
	for _, code := range codes {
		stock, err := s.GetStock(ctx, code)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, stock)
	}
	return result, nil
}

// AddFavoriteStock 添加自选股，重复添加不产生重复项
func (s *StockService) AddFavoriteStock(ctx context.Context, code string) error {
	if _, err := s.GetStock(ctx, code); err != nil {
		return err
	}
	codes := s.favoriteCodes()
	if slices.Contains(codes, code) {
		return nil
	}
	s.saveFavorites(ctx, append(codes, code))
	return nil
}

// RemoveFavoriteStock 移除自选股，不在列表中时不做任何事
func (s *StockService) RemoveFavoriteStock(ctx context.Context, code string) {
	codes := s.favoriteCodes()
	if !slices.Contains(codes, code) {
		return
	}
	s.saveFavorites(ctx, slices.DeleteFunc(codes, func(c string) bool { return c == code }))
}

// IsFavoriteStock 是否为自选股
func (s *StockService) IsFavoriteStock(code string) bool {
	return slices.Contains(s.favoriteCodes(), code)
}
