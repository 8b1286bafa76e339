package bootstrap

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"StockReview/pkg/model"
)

func (i *Initializer) seed(ctx context.Context) error {
	now := i.now()
	steps := []struct {
		name string
		fn   func(context.Context, time.Time) error
	}{
		{"指数", i.seedIndices},
		{"板块", i.seedSectors},
		{"市场情绪", i.seedSentiment},
		{"个股", i.seedStocks},
		{"交易记录", i.seedTrades},
		{"策略", i.seedStrategies},
	}
	for _, step := range steps {
		if err := step.fn(ctx, now); err != nil {
			return err
		}
		log.Debug().Str("data", step.name).Msg("写入示例数据")
	}
	return nil
}

func (i *Initializer) seedIndices(ctx context.Context, now time.Time) error {
	return i.svcs.Market.SaveMarketIndices(ctx,
		model.MarketIndex{Code: "000001", Name: "上证指数", Value: 3532.88, Change: 12.75, ChangePercent: 0.36, Timestamp: now},
		model.MarketIndex{Code: "399001", Name: "深证成指", Value: 11568.30, Change: 86.73, ChangePercent: 0.76, Timestamp: now},
		model.MarketIndex{Code: "399006", Name: "创业板指", Value: 2243.14, Change: 22.31, ChangePercent: 1.00, Timestamp: now},
		model.MarketIndex{Code: "000016", Name: "上证50", Value: 3132.99, Change: -3.25, ChangePercent: -0.10, Timestamp: now},
		model.MarketIndex{Code: "000300", Name: "沪深300", Value: 4112.68, Change: 15.23, ChangePercent: 0.37, Timestamp: now},
		model.MarketIndex{Code: "000905", Name: "中证500", Value: 6532.41, Change: 45.67, ChangePercent: 0.70, Timestamp: now},
	)
}

func trio(leader, leaderName, height, heightName, elastic, elasticName string) []model.SectorStock {
	return []model.SectorStock{
		{Code: leader, Name: leaderName, Position: model.PositionLeader},
		{Code: height, Name: heightName, Position: model.PositionHeight},
		{Code: elastic, Name: elasticName, Position: model.PositionElastic},
	}
}

func (i *Initializer) seedSectors(ctx context.Context, now time.Time) error {
	return i.svcs.Market.SaveSectors(ctx,
		model.Sector{Code: "BK0001", Name: "半导体", Change: 2.35, HotDays: 5, Stage: model.StageBurst, Timestamp: now,
			Stocks: trio("688981", "中芯国际", "688012", "中微公司", "688126", "沪硅产业")},
		model.Sector{Code: "BK0002", Name: "新能源车", Change: 1.87, HotDays: 3, Stage: model.StageStart, Timestamp: now,
			Stocks: trio("300750", "宁德时代", "002594", "比亚迪", "600733", "北汽蓝谷")},
		model.Sector{Code: "BK0003", Name: "人工智能", Change: 2.56, HotDays: 4, Stage: model.StageBurst, Timestamp: now,
			Stocks: trio("002230", "科大讯飞", "300024", "机器人", "688256", "寒武纪")},
		model.Sector{Code: "BK0004", Name: "医药生物", Change: -0.75, HotDays: 0, Stage: model.StageRebound, Timestamp: now,
			Stocks: trio("600276", "恒瑞医药", "300122", "智飞生物", "688185", "康希诺")},
		model.Sector{Code: "BK0005", Name: "光伏设备", Change: 1.23, HotDays: 2, Stage: model.StageWatch, Timestamp: now,
			Stocks: trio("601012", "隆基股份", "002459", "晶澳科技", "688599", "天合光能")},
	)
}

func (i *Initializer) seedSentiment(ctx context.Context, now time.Time) error {
	_, err := i.svcs.Market.SaveMarketSentiment(ctx, model.MarketSentiment{
		Date:           model.DayKey(now),
		UpStocks:       model.UpStocks{Value: 2876, Total: 4687, Percent: 61.36},
		YesterdayLimit: model.YesterdayLimit{Success: 32, Total: 58, Percent: 55.17},
		LimitUp:        model.LimitStat{Value: 78, Percent: 1.66},
		LimitDown:      model.LimitStat{Value: 12, Percent: 0.26},
		ProfitEffect: model.Effect{
			Summary:     "赚钱效应较强",
			Description: "市场整体呈现普涨格局，赚钱效应较强，热点板块轮动活跃，资金参与度高。",
			ExampleStocks: []model.ExampleStock{
				{ID: "1", Name: "中芯国际", Code: "688981", ChangePercent: 8.35},
				{ID: "2", Name: "比亚迪", Code: "002594", ChangePercent: 5.67},
				{ID: "3", Name: "宁德时代", Code: "300750", ChangePercent: 4.89},
			},
		},
		LossEffect: model.Effect{
			Summary:     "亏钱效应较弱",
			Description: "市场下跌个股较少，主要集中在前期涨幅过大的高位股和业绩不达预期的个股。",
			ExampleStocks: []model.ExampleStock{
				{ID: "1", Name: "恒瑞医药", Code: "600276", ChangePercent: -2.35},
				{ID: "2", Name: "贵州茅台", Code: "600519", ChangePercent: -1.87},
				{ID: "3", Name: "中国平安", Code: "601318", ChangePercent: -1.56},
			},
		},
	})
	return err
}

func (i *Initializer) seedStocks(ctx context.Context, now time.Time) error {
	return i.svcs.Stock.SaveStocks(ctx,
		model.Stock{Code: "688981", Name: "中芯国际", Price: 68.75, Change: 5.32, ChangePercent: 8.35, Sector: "BK0001",
			SectorPosition: model.PositionLeader, Tags: []string{"半导体", "芯片", "科技"}, Timestamp: now},
		model.Stock{Code: "002594", Name: "比亚迪", Price: 245.67, Change: 13.21, ChangePercent: 5.67, Sector: "BK0002",
			SectorPosition: model.PositionHeight, Tags: []string{"新能源车", "电池", "汽车"}, Timestamp: now},
		model.Stock{Code: "300750", Name: "宁德时代", Price: 312.45, Change: 14.56, ChangePercent: 4.89, Sector: "BK0002",
			SectorPosition: model.PositionLeader, Tags: []string{"新能源车", "电池", "储能"}, Timestamp: now},
		model.Stock{Code: "002230", Name: "科大讯飞", Price: 42.35, Change: 1.87, ChangePercent: 4.62, Sector: "BK0003",
			SectorPosition: model.PositionLeader, Tags: []string{"人工智能", "语音识别", "科技"}, Timestamp: now},
		model.Stock{Code: "600276", Name: "恒瑞医药", Price: 32.45, Change: -0.78, ChangePercent: -2.35, Sector: "BK0004",
			SectorPosition: model.PositionLeader, Tags: []string{"医药", "创新药", "医疗"}, Timestamp: now},
		model.Stock{Code: "601012", Name: "隆基股份", Price: 56.78, Change: 1.23, ChangePercent: 2.21, Sector: "BK0005",
			SectorPosition: model.PositionLeader, Tags: []string{"光伏", "新能源", "硅片"}, Timestamp: now},
	)
}

// seedTrades 通过交易服务写入，卖出记录的盈亏由匹配逻辑计算
func (i *Initializer) seedTrades(ctx context.Context, now time.Time) error {
	daysAgo := func(n int) time.Time { return now.AddDate(0, 0, -n) }
	trades := []model.TradeRecord{
		{StockCode: "688981", StockName: "中芯国际", Type: model.TradeBuy, Price: 60.25, Quantity: 200, Date: daysAgo(10),
			Reason: "半导体行业景气度高，公司基本面良好"},
		{StockCode: "688981", StockName: "中芯国际", Type: model.TradeSell, Price: 68.75, Quantity: 200, Date: now,
			Reason: "获利了结"},
		{StockCode: "002594", StockName: "比亚迪", Type: model.TradeBuy, Price: 230.45, Quantity: 100, Date: daysAgo(5),
			Reason: "新能源车销量持续增长，行业前景看好"},
		{StockCode: "600276", StockName: "恒瑞医药", Type: model.TradeBuy, Price: 35.67, Quantity: 300, Date: daysAgo(15),
			Reason: "医药板块调整到位，估值合理"},
		{StockCode: "600276", StockName: "恒瑞医药", Type: model.TradeSell, Price: 32.45, Quantity: 300, Date: now,
			Reason: "止损出局"},
	}
	for _, t := range trades {
		if _, err := i.svcs.Trade.SaveTradeRecord(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func price(v float64) *float64 { return &v }

func (i *Initializer) seedStrategies(ctx context.Context, now time.Time) error {
	strategies := []model.Strategy{
		{
			Name:        "半导体行业龙头布局",
			Type:        "行业龙头",
			Description: "半导体行业景气度持续提升，国产替代加速，布局行业龙头",
			Date:        now,
			Stocks: []model.StrategyStock{
				{Code: "688981", Name: "中芯国际", Reason: "国内晶圆制造龙头，受益于国产替代", Sector: "半导体",
					Position: model.PositionLeader, TargetPrice: price(75), StopLoss: price(62)},
				{Code: "688012", Name: "中微公司", Reason: "设备国产化龙头，市占率持续提升", Sector: "半导体",
					Position: model.PositionHeight, TargetPrice: price(120), StopLoss: price(95)},
			},
			Parameters: map[string]string{"holdPeriod": "中长期", "expectedReturn": "20%以上"},
			Tags:       []string{"半导体", "科技", "国产替代"},
		},
		{
			Name:        "新能源车产业链配置",
			Type:        "主题投资",
			Description: "新能源车渗透率持续提升，产业链景气度高",
			Date:        now,
			Stocks: []model.StrategyStock{
				{Code: "300750", Name: "宁德时代", Reason: "全球动力电池龙头，技术领先", Sector: "新能源车",
					Position: model.PositionLeader, TargetPrice: price(350), StopLoss: price(280)},
				{Code: "002594", Name: "比亚迪", Reason: "新能源车销量持续增长，垂直整合优势明显", Sector: "新能源车",
					Position: model.PositionHeight, TargetPrice: price(280), StopLoss: price(220)},
			},
			Parameters: map[string]string{"holdPeriod": "中长期", "expectedReturn": "25%以上"},
			Tags:       []string{"新能源车", "电池", "汽车"},
		},
	}
	for _, s := range strategies {
		if _, err := i.svcs.Trade.SaveStrategy(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
