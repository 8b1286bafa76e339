package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"StockReview/pkg/config"
)

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer 创建新的API服务器
func NewServer(cfg *config.Config) *Server {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 设置中间件
	router.Use(gin.Recovery())
	router.Use(accessLog())

	srv := &http.Server{
		Addr:         ":" + cfg.API.Port,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	return &Server{
		router: router,
		srv:    srv,
	}
}

// accessLog 用 zerolog 记录请求
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		evt := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("请求")
	}
}

// Handler 返回路由，测试中直接使用
func (s *Server) Handler() http.Handler { return s.router }

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(h *Handlers) {
	// 健康检查
	s.router.GET("/health", h.HealthCheck)
	s.router.GET("/ready", h.ReadinessCheck)

	v1 := s.router.Group("/api/v1")
	{
		// 市场
		market := v1.Group("/market")
		market.GET("/indices", h.GetMarketIndices)
		market.POST("/indices", h.SaveMarketIndices)
		market.GET("/indices/:code", h.GetMarketIndex)
		market.PUT("/indices/:code", h.UpdateMarketIndex)
		market.DELETE("/indices/:code", h.DeleteMarketIndex)
		market.GET("/sectors", h.GetSectors)
		market.POST("/sectors", h.SaveSectors)
		market.GET("/sectors/:code", h.GetSector)
		market.PUT("/sectors/:code", h.UpdateSector)
		market.DELETE("/sectors/:code", h.DeleteSector)
		market.GET("/hot-sectors", h.GetHotSectors)
		market.GET("/sentiment", h.GetMarketSentiment)
		market.POST("/sentiment", h.SaveMarketSentiment)
		market.PUT("/sentiment", h.UpdateMarketSentiment)
		market.DELETE("/sentiment/:date", h.DeleteMarketSentiment)
		market.GET("/effects/profit", h.GetProfitEffect)
		market.POST("/effects/profit", h.AddProfitEffectStock)
		market.GET("/effects/loss", h.GetLossEffect)
		market.POST("/effects/loss", h.AddLossEffectStock)

		// 个股
		v1.GET("/stocks", h.GetStocks)
		v1.POST("/stocks", h.SaveStocks)
		v1.GET("/stocks/:code", h.GetStock)
		v1.PUT("/stocks/:code", h.UpdateStock)
		v1.DELETE("/stocks/:code", h.DeleteStock)
		v1.GET("/stocks/:code/klines", h.GetStockKlines)
		v1.PUT("/stocks/:code/klines", h.SaveStockKlines)
		v1.GET("/stocks/:code/indicators", h.GetStockIndicators)
		v1.GET("/stock-search", h.SearchStocks)
		v1.GET("/favorites/stocks", h.GetFavoriteStocks)
		v1.GET("/favorites/stocks/:code", h.IsFavoriteStock)
		v1.POST("/favorites/stocks/:code", h.AddFavoriteStock)
		v1.DELETE("/favorites/stocks/:code", h.RemoveFavoriteStock)

		// 交易
		v1.GET("/trades", h.GetTradeRecords)
		v1.POST("/trades", h.SaveTradeRecord)
		v1.GET("/trades/:id", h.GetTradeRecord)
		v1.PUT("/trades/:id", h.UpdateTradeRecord)
		v1.DELETE("/trades/:id", h.DeleteTradeRecord)
		v1.GET("/trade-analysis", h.GetTradeAnalysis)
		v1.GET("/strategies", h.GetStrategies)
		v1.POST("/strategies", h.SaveStrategy)
		v1.GET("/strategies/:id", h.GetStrategy)
		v1.PUT("/strategies/:id", h.UpdateStrategy)
		v1.DELETE("/strategies/:id", h.DeleteStrategy)

		// 知识库
		v1.GET("/knowledge", h.GetKnowledgeEntries)
		v1.POST("/knowledge", h.SaveKnowledgeEntry)
		v1.GET("/knowledge/:id", h.GetKnowledgeEntry)
		v1.PUT("/knowledge/:id", h.UpdateKnowledgeEntry)
		v1.DELETE("/knowledge/:id", h.DeleteKnowledgeEntry)
		v1.GET("/knowledge-stats", h.GetKnowledgeStats)

		// 用户设置与登录
		v1.GET("/settings", h.GetUserSettings)
		v1.PATCH("/settings", h.UpdateUserSettings)
		v1.PUT("/settings/theme", h.SetTheme)
		v1.PUT("/settings/default-module", h.SetDefaultModule)
		v1.GET("/settings/last-sync", h.GetLastSyncTime)
		v1.GET("/session", h.CurrentUser)
		v1.POST("/session", h.Login)
		v1.DELETE("/session", h.Logout)

		// 导出与分享
		v1.GET("/exports", h.GetExportHistory)
		v1.POST("/exports", h.ExportKnowledge)
		v1.GET("/exports/:id", h.GetExport)
		v1.DELETE("/exports/:id", h.DeleteExport)
		v1.POST("/exports/:id/share", h.ShareExport)
		v1.GET("/shared/:token", h.GetSharedExport)

		// 数据管理
		v1.POST("/admin/init", h.InitData)
		v1.DELETE("/admin/data", h.ClearAllData)
	}
}

// Start 启动服务器，收到中断信号后优雅关闭
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("API服务器启动")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	log.Info().Msg("服务器已关闭")
	return nil
}
