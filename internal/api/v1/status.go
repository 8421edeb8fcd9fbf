package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool `json:"initialized"`    // 是否已导入参考库
	ReferenceCount int  `json:"referenceCount"` // 参考库条目数
	ScheduleCount  int  `json:"scheduleCount"`  // 历史排期数
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	refCount, err := h.store.CountReferenceEntries()
	if err != nil {
		refCount = 0
	}

	schedCount, err := h.store.CountSchedules()
	if err != nil {
		schedCount = 0
	}

	c.JSON(http.StatusOK, StatusResponse{
		Initialized:    refCount > 0,
		ReferenceCount: refCount,
		ScheduleCount:  schedCount,
	})
}
