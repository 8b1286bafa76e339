// Package api 通过 gin 提供数据服务的 HTTP 接口。
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"StockReview/pkg/bootstrap"
	"StockReview/pkg/model"
	"StockReview/pkg/monitor"
	"StockReview/pkg/recordstore"
	"StockReview/pkg/service"
)

// Handlers API处理程序
type Handlers struct {
	svcs    *service.Services
	initer  *bootstrap.Initializer
	monitor *monitor.Monitor
}

// NewHandlers 创建新的API处理程序
func NewHandlers(svcs *service.Services, initer *bootstrap.Initializer, monitor *monitor.Monitor) *Handlers {
	return &Handlers{
		svcs:    svcs,
		initer:  initer,
		monitor: monitor,
	}
}

// fail 按错误类型返回状态码
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case service.IsValidation(err), errors.Is(err, recordstore.ErrInvalidRecord):
		status = http.StatusBadRequest
	case service.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, recordstore.ErrDuplicateKey):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("请求处理失败")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数错误: " + err.Error()})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, fmt.Errorf("无效的ID %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

// dayQuery 解析 2006-01-02 格式的日期参数，参数缺省时返回 nil
func dayQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := model.ParseDay(raw)
	if err != nil {
		badRequest(c, fmt.Errorf("无效的日期 %s=%q", name, raw))
		return nil, false
	}
	return &t, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, fmt.Errorf("无效的数字 %s=%q", name, raw))
		return 0, false
	}
	return n, true
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查：数据初始化完成且各组件健康
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	healthy := h.monitor.CheckAll(c.Request.Context())
	if !healthy || !h.initer.Done() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": h.monitor.GetAllStatus(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": h.monitor.GetAllStatus(),
	})
}

// InitData 初始化数据，存储为空时写入示例数据
func (h *Handlers) InitData(c *gin.Context) {
	if err := h.initer.Init(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"seeded": h.initer.Seeded()})
}

// ClearAllData 清空所有数据
func (h *Handlers) ClearAllData(c *gin.Context) {
	if err := h.initer.ClearAll(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
