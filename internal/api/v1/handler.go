package v1

import (
	"github.com/gin-gonic/gin"

	"planobra/internal/config"
	"planobra/internal/importer"
	"planobra/internal/store"
)

// Handler V1 API 处理器
type Handler struct {
	store       *store.Store
	coordinator *importer.Coordinator
	downloads   *exportDownloadStore
}

// NewHandler 创建 V1 API 处理器
func NewHandler(store *store.Store, business config.BusinessConfig) *Handler {
	return &Handler{
		store:       store,
		coordinator: importer.NewCoordinator(store, business),
		downloads:   newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 参考库导入
	router.POST("/reference/import", h.ImportReference)

	// 排期生成与查询
	router.POST("/generate", h.GenerateSchedule)
	router.GET("/schedules", h.ListSchedules)
	router.GET("/schedules/:id", h.GetSchedule)

	// 排期导出
	router.POST("/schedules/:id/export", h.ExportSchedule)
	router.GET("/export/download/:token", h.DownloadExport)
}
