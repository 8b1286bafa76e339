// Package report 把交易分析和知识库渲染成 Markdown、HTML 和终端文本。
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"StockReview/pkg/model"
)

// CNY 人民币金额展示
func CNY(amount float64) string {
	cents := decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0)
	return money.New(cents.IntPart(), money.CNY).Display()
}

// Percent 百分比展示，保留一位小数
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// TradeAnalysisMarkdown 交易分析报告
func TradeAnalysisMarkdown(a model.TradeAnalysis) string {
	var b strings.Builder
	b.WriteString("# 交易分析\n\n")
	b.WriteString("| 指标 | 数值 |\n|---|---:|\n")
	fmt.Fprintf(&b, "| 交易次数 | %d |\n", a.TotalTrades)
	fmt.Fprintf(&b, "| 盈利次数 | %d |\n", a.ProfitTrades)
	fmt.Fprintf(&b, "| 亏损次数 | %d |\n", a.LossTrades)
	fmt.Fprintf(&b, "| 总盈亏 | %s |\n", CNY(a.TotalProfit))
	fmt.Fprintf(&b, "| 胜率 | %s |\n", a.WinRateText)
	fmt.Fprintf(&b, "| 平均持仓天数 | %.1f |\n", a.AvgHoldingDays)

	if len(a.MonthlyStats) > 0 {
		b.WriteString("\n## 月度统计\n\n| 月份 | 交易 | 盈利 | 盈亏 |\n|---|---:|---:|---:|\n")
		for _, m := range a.MonthlyStats {
			fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", m.Month, m.Trades, m.ProfitTrades, CNY(m.Profit))
		}
	}
	if len(a.ReasonStats) > 0 {
		b.WriteString("\n## 交易理由\n\n| 理由 | 交易 | 胜率 | 盈亏 |\n|---|---:|---:|---:|\n")
		for _, r := range a.ReasonStats {
			fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", escape(r.Reason), r.Trades, Percent(r.WinRate), CNY(r.Profit))
		}
	}
	return b.String()
}

// KnowledgeMarkdown 知识库导出为 Markdown
func KnowledgeMarkdown(entries []model.KnowledgeEntry, generated time.Time) string {
	var b strings.Builder
	b.WriteString("# 知识库\n\n")
	fmt.Fprintf(&b, "导出时间: %s，共 %d 条\n", generated.Format("2006-01-02 15:04"), len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "\n## %s\n\n", e.Title)
		fmt.Fprintf(&b, "- 类型: %s\n", e.Type)
		if len(e.Tags) > 0 {
			fmt.Fprintf(&b, "- 标签: %s\n", strings.Join(e.Tags, ", "))
		}
		if len(e.RelatedStocks) > 0 {
			fmt.Fprintf(&b, "- 相关股票: %s\n", strings.Join(e.RelatedStocks, ", "))
		}
		fmt.Fprintf(&b, "- 更新时间: %s\n", e.UpdatedAt.Format("2006-01-02"))
		if content := strings.TrimSpace(e.Content); content != "" {
			b.WriteString("\n")
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// KnowledgeJSON 知识库导出为 JSON
func KnowledgeJSON(entries []model.KnowledgeEntry) (string, error) {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("导出知识库失败: %w", err)
	}
	return string(raw), nil
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML 把 Markdown 转成 HTML
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("渲染HTML失败: %w", err)
	}
	return buf.String(), nil
}

// Terminal 把 Markdown 渲染为终端文本
func Terminal(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("创建终端渲染器失败: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("渲染终端文本失败: %w", err)
	}
	return out, nil
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
