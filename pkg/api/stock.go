package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"StockReview/pkg/model"
)

// GetStocks 个股列表，可按 sector 或 tag 过滤
func (h *Handlers) GetStocks(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []model.Stock
		err  error
	)
	switch {
	case c.Query("sector") != "":
		list, err = h.svcs.Stock.GetStocksBySector(ctx, c.Query("sector"))
	case c.Query("tag") != "":
		list, err = h.svcs.Stock.GetStocksByTag(ctx, c.Query("tag"))
	default:
		list, err = h.svcs.Stock.GetStocks(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *Handlers) SaveStocks(c *gin.Context) {
	var req []model.Stock
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svcs.Stock.SaveStocks(c.Request.Context(), req...); err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"count": len(req)})
}

func (h *Handlers) GetStock(c *gin.Context) {
	stock, err := h.svcs.Stock.GetStock(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, stock)
}

func (h *Handlers) UpdateStock(c *gin.Context) {
	var req model.Stock
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Code = c.Param("code")
	stock, err := h.svcs.Stock.UpdateStock(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, stock)
}

func (h *Handlers) DeleteStock(c *gin.Context) {
	if err := h.svcs.Stock.DeleteStock(c.Request.Context(), c.Param("code")); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": c.Param("code")})
}

func (h *Handlers) GetStockKlines(c *gin.Context) {
	klines, err := h.svcs.Stock.GetStockKlines(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, klines)
}

// SaveStockKlines 替换K线并重新计算均线
func (h *Handlers) SaveStockKlines(c *gin.Context) {
	var req []model.Kline
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	data, err := h.svcs.Stock.SaveStockKlines(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}

func (h *Handlers) GetStockIndicators(c *gin.Context) {
	indicators, err := h.svcs.Stock.GetStockTechnicalIndicators(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, indicators)
}

// SearchStocks 按代码或名称搜索，参数 q 和 limit
func (h *Handlers) SearchStocks(c *gin.Context) {
	limit, valid := intQuery(c, "limit")
	if !valid {
		return
	}
	list, err := h.svcs.Stock.SearchStocks(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *Handlers) GetFavoriteStocks(c *gin.Context) {
	list, err := h.svcs.Stock.GetFavoriteStocks(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *Handlers) IsFavoriteStock(c *gin.Context) {
	ok(c, gin.H{"favorite": h.svcs.Stock.IsFavoriteStock(c.Param("code"))})
}

func (h *Handlers) AddFavoriteStock(c *gin.Context) {
	if err := h.svcs.Stock.AddFavoriteStock(c.Request.Context(), c.Param("code")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) RemoveFavoriteStock(c *gin.Context) {
	h.svcs.Stock.RemoveFavoriteStock(c.Request.Context(), c.Param("code"))
	c.Status(http.StatusNoContent)
}
