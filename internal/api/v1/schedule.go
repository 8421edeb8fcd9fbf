package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"planobra/internal/importer"
	"planobra/internal/model"
	"planobra/internal/service/excel"
)

// GenerateSchedule 上传预算表并生成排期（SSE 流式响应）
// POST /api/generate
// 表单字段：file（预算 xlsx）、start_date（dd/mm/yyyy）、deadline_days、sheet、segment_blocks
func (h *Handler) GenerateSchedule(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的表单数据"})
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}
	uploadedFile := files[0]

	startDateText := c.DefaultPostForm("start_date", time.Now().Format(model.DateLayout))
	startDate, err := time.Parse(model.DateLayout, startDateText)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("开工日格式错误（期望 dd/mm/yyyy）: %s", startDateText)})
		return
	}

	deadlineDays := 0
	if v := c.PostForm("deadline_days"); v != "" {
		deadlineDays, err = strconv.Atoi(v)
		if err != nil || deadlineDays <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("工期上限必须为正整数: %s", v)})
			return
		}
	}

	segmentBlocks := c.DefaultPostForm("segment_blocks", "false") == "true"

	reader, err := uploadedFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer reader.Close()

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	progressChan := h.coordinator.GenerateSchedule(importer.GenerateOptions{
		Filename:      uploadedFile.Filename,
		Budget:        reader,
		Sheet:         c.PostForm("sheet"),
		StartDate:     startDate,
		DeadlineDays:  deadlineDays,
		SegmentBlocks: segmentBlocks,
	})

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListSchedules 排期历史
// GET /api/schedules?limit=50
func (h *Handler) ListSchedules(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	schedules, err := h.store.ListSchedules(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// GetSchedule 读取单次排期（含明细）
// GET /api/schedules/:id
func (h *Handler) GetSchedule(c *gin.Context) {
	schedule, err := h.store.GetSchedule(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "排期不存在"})
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// ExportSchedule 导出排期为 xlsx/csv，返回一次性下载地址
// POST /api/schedules/:id/export?format=xlsx
func (h *Handler) ExportSchedule(c *gin.Context) {
	schedule, err := h.store.GetSchedule(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "排期不存在"})
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	exporter := excel.NewScheduleExporter()

	var tempPath string
	switch format {
	case "xlsx":
		file, err := exporter.ExportXLSX(schedule)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
			return
		}
		defer file.Close()

		tempPath = filepath.Join(os.TempDir(), fmt.Sprintf("planobra_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
		if err := file.SaveAs(tempPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "写入导出文件失败: " + err.Error()})
			_ = os.Remove(tempPath)
			return
		}
	case "csv":
		tempPath = filepath.Join(os.TempDir(), fmt.Sprintf("planobra_export_%d_%d.csv", time.Now().UnixNano(), os.Getpid()))
		f, err := os.Create(tempPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "创建导出文件失败: " + err.Error()})
			return
		}
		if err := exporter.ExportCSV(f, schedule); err != nil {
			_ = f.Close()
			_ = os.Remove(tempPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
			return
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(tempPath)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "写入导出文件失败: " + err.Error()})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format 只允许 xlsx/csv"})
		return
	}

	token := h.downloads.put(tempPath, schedule.ID, format, 10*time.Minute)
	c.JSON(http.StatusOK, gin.H{
		"downloadUrl": fmt.Sprintf("/api/export/download/%s", token),
	})
}

// DownloadExport 下载导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	filename := fmt.Sprintf("cronograma_%s.%s", item.scheduleID, item.format)
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if item.format == "csv" {
		contentType = "text/csv; charset=utf-8"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}
