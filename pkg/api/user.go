package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"StockReview/pkg/model"
	"StockReview/pkg/service"
)

func (h *Handlers) GetUserSettings(c *gin.Context) {
	ok(c, h.svcs.User.GetUserSettings(c.Request.Context()))
}

// UpdateUserSettings 部分更新用户设置
func (h *Handlers) UpdateUserSettings(c *gin.Context) {
	var req service.SettingsPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	settings, err := h.svcs.User.UpdateUserSettings(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, settings)
}

type themeRequest struct {
	Theme model.Theme `json:"theme" binding:"required"`
}

func (h *Handlers) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svcs.User.SetTheme(c.Request.Context(), req.Theme); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"theme": req.Theme})
}

type moduleRequest struct {
	Module string `json:"module" binding:"required"`
}

func (h *Handlers) SetDefaultModule(c *gin.Context) {
	var req moduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svcs.User.SetDefaultModule(c.Request.Context(), req.Module); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"module": h.svcs.User.GetDefaultModule(c.Request.Context())})
}

// GetLastSyncTime 上次同步时间，从未同步时为 null
func (h *Handlers) GetLastSyncTime(c *gin.Context) {
	t, found := h.svcs.User.GetLastSyncTime()
	if !found {
		ok(c, gin.H{"lastSyncTime": nil})
		return
	}
	ok(c, gin.H{"lastSyncTime": t})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
}

// Login 本地登录
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svcs.User.Login(req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"userId": id})
}

func (h *Handlers) Logout(c *gin.Context) {
	h.svcs.User.Logout()
	c.Status(http.StatusNoContent)
}

func (h *Handlers) CurrentUser(c *gin.Context) {
	id, found := h.svcs.User.CurrentUserID()
	ok(c, gin.H{"userId": id, "loggedIn": found})
}

// GetKnowledgeEntries 知识条目列表，支持 q（标题或内容）、title、tag 过滤
func (h *Handlers) GetKnowledgeEntries(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []model.KnowledgeEntry
		err  error
	)
	switch {
	case c.Query("q") != "":
		list, err = h.svcs.User.SearchKnowledge(ctx, c.Query("q"))
	case c.Query("title") != "":
		list, err = h.svcs.User.SearchKnowledgeByTitle(ctx, c.Query("title"))
	case c.Query("tag") != "":
		list, err = h.svcs.User.GetKnowledgeByTag(ctx, c.Query("tag"))
	default:
		list, err = h.svcs.User.GetKnowledgeEntries(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

func (h *Handlers) SaveKnowledgeEntry(c *gin.Context) {
	var req model.KnowledgeEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svcs.User.SaveKnowledgeEntry(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"id": id})
}

func (h *Handlers) GetKnowledgeEntry(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	entry, err := h.svcs.User.GetKnowledgeEntry(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, entry)
}

func (h *Handlers) UpdateKnowledgeEntry(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req model.KnowledgeEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = id
	entry, err := h.svcs.User.UpdateKnowledgeEntry(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, entry)
}

func (h *Handlers) DeleteKnowledgeEntry(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svcs.User.DeleteKnowledgeEntry(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"deleted": id})
}

func (h *Handlers) GetKnowledgeStats(c *gin.Context) {
	stats, err := h.svcs.User.GetKnowledgeStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, stats)
}
