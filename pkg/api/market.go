package api

import (
	"github.com/gin-gonic/gin"

	"StockReview/pkg/model"
	"StockReview/pkg/service"
)

// GetMarketIndices 全部指数
func (h *Handlers) GetMarketIndices(c *gin.Context) {
	list, err := h.svcs.Market.GetMarketIndices(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// SaveMarketIndices 批量保存指数
func (h *Handlers) SaveMarketIndices(c *gin.Context) {
	var req []model.MarketIndex
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svcs.Market.SaveMarketIndices(c.Request.Context(), req...); err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"count": len(req)})
}

func (h *Handlers) GetMarketIndex(c *gin.Context) {
	index, err := h.svcs.Market.GetMarketIndex(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, index)
}

func (h *Handlers) UpdateMarketIndex(c *gin.Context) {
	var req model.MarketIndex
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Code = c.Param("code")
	index, err := h.svcs.Market.UpdateMarketIndex(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, index)
}

func (h *Handlers) DeleteMarketIndex(c *gin.Context) {
	if err := h.svcs.Market.DeleteMarketIndex(c.Request.Context(), c.Param("code")); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": c.Param("code")})
}

// GetSectors 板块列表，支持 stage 和 limit 参数
func (h *Handlers) GetSectors(c *gin.Context) {
	limit, valid := intQuery(c, "limit")
	if !valid {
		return
	}
	list, err := h.svcs.Market.GetSectors(c.Request.Context(), service.SectorQuery{
		Stage: model.SectorStage(c.Query("stage")),
		Limit: limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *Handlers) SaveSectors(c *gin.Context) {
	var req []model.Sector
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svcs.Market.SaveSectors(c.Request.Context(), req...); err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"count": len(req)})
}

func (h *Handlers) GetSector(c *gin.Context) {
	sector, err := h.svcs.Market.GetSector(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sector)
}

func (h *Handlers) UpdateSector(c *gin.Context) {
	var req model.Sector
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Code = c.Param("code")
	sector, err := h.svcs.Market.UpdateSector(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sector)
}

func (h *Handlers) DeleteSector(c *gin.Context) {
	if err := h.svcs.Market.DeleteSector(c.Request.Context(), c.Param("code")); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": c.Param("code")})
}

// GetHotSectors 热门板块及核心股
func (h *Handlers) GetHotSectors(c *gin.Context) {
	limit, valid := intQuery(c, "limit")
	if !valid {
		return
	}
	list, err := h.svcs.Market.GetHotSectors(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// GetMarketSentiment 情绪快照，没有 date 参数时返回最新一条，没有数据时 data 为 null
func (h *Handlers) GetMarketSentiment(c *gin.Context) {
	date, valid := dayQuery(c, "date")
	if !valid {
		return
	}
	sentiment, err := h.svcs.Market.GetMarketSentiment(c.Request.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sentiment)
}

func (h *Handlers) SaveMarketSentiment(c *gin.Context) {
	var req model.MarketSentiment
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sentiment, err := h.svcs.Market.SaveMarketSentiment(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, sentiment)
}

func (h *Handlers) UpdateMarketSentiment(c *gin.Context) {
	var req model.MarketSentiment
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sentiment, err := h.svcs.Market.UpdateMarketSentiment(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sentiment)
}

func (h *Handlers) DeleteMarketSentiment(c *gin.Context) {
	date, err := model.ParseDay(c.Param("date"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svcs.Market.DeleteMarketSentiment(c.Request.Context(), date); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": model.DayKey(date)})
}

func (h *Handlers) GetProfitEffect(c *gin.Context) {
	date, valid := dayQuery(c, "date")
	if !valid {
		return
	}
	view, err := h.svcs.Market.GetMarketProfitEffect(c.Request.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

func (h *Handlers) GetLossEffect(c *gin.Context) {
	date, valid := dayQuery(c, "date")
	if !valid {
		return
	}
	view, err := h.svcs.Market.GetMarketLossEffect(c.Request.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

// AddProfitEffectStock 向最新情绪快照追加赚钱效应个股
func (h *Handlers) AddProfitEffectStock(c *gin.Context) {
	var req model.ExampleStock
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svcs.Market.AddStockToProfitEffect(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}

// AddLossEffectStock 向最新情绪快照追加亏钱效应个股
func (h *Handlers) AddLossEffectStock(c *gin.Context) {
	var req model.ExampleStock
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.svcs.Market.AddStockToLossEffect(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, view)
}
