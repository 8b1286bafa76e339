package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"StockReview/pkg/model"
	"StockReview/pkg/report"
)

// seedCmd 初始化存储，空库时写入示例数据
type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "初始化数据，空库时写入示例数据" }
func (*seedCmd) Usage() string {
	return `review seed

  初始化记录存储和用户设置。已有指数数据时不会重复写入示例数据。
`
}
func (*seedCmd) SetFlags(*flag.FlagSet) {}

func (*seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.initer.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if a.initer.Seeded() {
		fmt.Println("已写入示例数据")
	} else {
		fmt.Println("已有数据，跳过示例数据")
	}
	return subcommands.ExitSuccess
}

// clearCmd 清空全部数据
type clearCmd struct {
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "清空全部数据" }
func (*clearCmd) Usage() string {
	return `review clear -y

  清空所有集合和键值存储。
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "y", false, "确认清空")
}

func (c *clearCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(os.Stderr, "Error: 需要 -y 确认清空")
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.initer.ClearAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("所有数据已清空")
	return subcommands.ExitSuccess
}

// analysisCmd 交易绩效分析
type analysisCmd struct {
	start string
	end   string
	raw   bool
}

func (*analysisCmd) Name() string     { return "analysis" }
func (*analysisCmd) Synopsis() string { return "交易绩效分析" }
func (*analysisCmd) Usage() string {
	return `review analysis [-start <date> -end <date>] [-raw]

  统计已匹配卖出记录的盈亏、胜率和平均持仓天数。日期格式 2006-01-02。
`
}

func (c *analysisCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "开始日期")
	f.StringVar(&c.end, "end", "", "结束日期（含当天）")
	f.BoolVar(&c.raw, "raw", false, "输出原始 Markdown")
}

func (c *analysisCmd) rng() (start, end *time.Time, err error) {
	if (c.start == "") != (c.end == "") {
		return nil, nil, fmt.Errorf("-start 和 -end 必须同时给出")
	}
	if c.start == "" {
		return nil, nil, nil
	}
	s, err := model.ParseDay(c.start)
	if err != nil {
		return nil, nil, err
	}
	e, err := model.ParseDay(c.end)
	if err != nil {
		return nil, nil, err
	}
	e = e.Add(model.Day - time.Nanosecond)
	return &s, &e, nil
}

func (c *analysisCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := c.rng()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	analysis, err := a.svcs.Trade.GetTradeAnalysis(ctx, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(report.TradeAnalysisMarkdown(analysis), c.raw)
	return subcommands.ExitSuccess
}

// knowledgeCmd 导出知识库
type knowledgeCmd struct {
	format string
	raw    bool
}

func (*knowledgeCmd) Name() string     { return "knowledge" }
func (*knowledgeCmd) Synopsis() string { return "导出知识库" }
func (*knowledgeCmd) Usage() string {
	return `review knowledge [-f markdown|json|html] [-raw]

  导出全部知识条目并记入导出历史。markdown 格式默认在终端渲染。
`
}

func (c *knowledgeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "f", string(model.FormatMarkdown), "导出格式 (markdown, json, html)")
	f.BoolVar(&c.raw, "raw", false, "输出原始内容")
}

func (c *knowledgeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	format := model.ExportFormat(c.format)
	if !format.Valid() {
		fmt.Fprintf(os.Stderr, "Error: 不支持的导出格式 %q\n", c.format)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	rec, err := a.svcs.Export.ExportKnowledge(ctx, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if format == model.FormatMarkdown {
		printMarkdown(rec.Content, c.raw)
	} else {
		fmt.Println(rec.Content)
	}
	return subcommands.ExitSuccess
}
