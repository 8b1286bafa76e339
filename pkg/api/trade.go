package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"StockReview/pkg/model"
)

// rangeQuery 解析 start/end 参数，只给日期的 end 包含当天全天
func rangeQuery(c *gin.Context) (start, end *time.Time, valid bool) {
	if start, valid = dayQuery(c, "start"); !valid {
		return nil, nil, false
	}
	if end, valid = dayQuery(c, "end"); !valid {
		return nil, nil, false
	}
	if end != nil && len(c.Query("end")) == len(model.DayFormat) {
		e := end.Add(model.Day - time.Nanosecond)
		end = &e
	}
	return start, end, true
}

// GetTradeRecords 交易记录。code 按股票查询（升序，可带 type），start+end 按日期区间查询，否则返回全部
func (h *Handlers) GetTradeRecords(c *gin.Context) {
	ctx := c.Request.Context()
	start, end, valid := rangeQuery(c)
	if !valid {
		return
	}

	var (
		list []model.TradeRecord
		err  error
	)
	switch {
	case c.Query("code") != "":
		var tradeType model.TradeType
		if raw := c.Query("type"); raw != "" {
			if tradeType, err = model.ParseTradeType(raw); err != nil {
				badRequest(c, err)
				return
			}
		}
		list, err = h.svcs.Trade.GetTradeRecordsByStock(ctx, c.Query("code"), tradeType)
	case start != nil && end != nil:
		list, err = h.svcs.Trade.GetTradeRecordsByDateRange(ctx, *start, *end)
	case start != nil || end != nil:
		badRequest(c, fmt.Errorf("start 和 end 必须同时给出"))
		return
	default:
		list, err = h.svcs.Trade.GetTradeRecords(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// SaveTradeRecord 新增交易记录，卖出记录自动计算盈亏
func (h *Handlers) SaveTradeRecord(c *gin.Context) {
	var req model.TradeRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svcs.Trade.SaveTradeRecord(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := h.svcs.Trade.GetTradeRecord(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, rec)
}

func (h *Handlers) GetTradeRecord(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	rec, err := h.svcs.Trade.GetTradeRecord(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rec)
}

func (h *Handlers) UpdateTradeRecord(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req model.TradeRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.svcs.Trade.UpdateTradeRecord(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rec)
}

func (h *Handlers) DeleteTradeRecord(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svcs.Trade.DeleteTradeRecord(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": id})
}

// GetTradeAnalysis 交易绩效统计，可选 start/end
func (h *Handlers) GetTradeAnalysis(c *gin.Context) {
	start, end, valid := rangeQuery(c)
	if !valid {
		return
	}
	analysis, err := h.svcs.Trade.GetTradeAnalysis(c.Request.Context(), start, end)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, analysis)
}

// GetStrategies 策略列表，可按 date 或 type 过滤
func (h *Handlers) GetStrategies(c *gin.Context) {
	ctx := c.Request.Context()
	date, valid := dayQuery(c, "date")
	if !valid {
		return
	}
	var (
		list []model.Strategy
		err  error
	)
	switch {
	case date != nil:
		list, err = h.svcs.Trade.GetStrategiesByDate(ctx, *date)
	case c.Query("type") != "":
		list, err = h.svcs.Trade.GetStrategiesByType(ctx, c.Query("type"))
	default:
		list, err = h.svcs.Trade.GetStrategies(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *Handlers) SaveStrategy(c *gin.Context) {
	var req model.Strategy
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svcs.Trade.SaveStrategy(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"id": id})
}

func (h *Handlers) GetStrategy(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	st, err := h.svcs.Trade.GetStrategy(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, st)
}

func (h *Handlers) UpdateStrategy(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req model.Strategy
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = id
	st, err := h.svcs.Trade.UpdateStrategy(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, st)
}

func (h *Handlers) DeleteStrategy(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svcs.Trade.DeleteStrategy(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": id})
}
