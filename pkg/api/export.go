package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"StockReview/pkg/model"
)

type exportRequest struct {
	Format model.ExportFormat `json:"format" binding:"required"`
}

// ExportKnowledge 导出知识库
func (h *Handlers) ExportKnowledge(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.svcs.Export.ExportKnowledge(c.Request.Context(), req.Format)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, rec)
}

func (h *Handlers) GetExportHistory(c *gin.Context) {
	list, err := h.svcs.Export.GetExportHistory(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *Handlers) GetExport(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	rec, err := h.svcs.Export.GetExport(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rec)
}

func (h *Handlers) DeleteExport(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svcs.Export.DeleteExport(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": id})
}

// ShareExport 生成分享令牌，ttl 为 Go 时长格式（如 24h），缺省使用配置的有效期
func (h *Handlers) ShareExport(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var ttl time.Duration
	if raw := c.Query("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		ttl = d
	}
	share, err := h.svcs.Export.ShareExport(c.Request.Context(), id, ttl)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, share)
}

// GetSharedExport 通过分享令牌获取导出内容，HTML 导出直接返回页面
func (h *Handlers) GetSharedExport(c *gin.Context) {
	rec, err := h.svcs.Export.GetSharedExport(c.Request.Context(), c.Param("token"))
	if err != nil {
		fail(c, err)
		return
	}
	switch rec.Format {
	case model.FormatHTML:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rec.Content))
	case model.FormatMarkdown:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(rec.Content))
	default:
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(rec.Content))
	}
}
