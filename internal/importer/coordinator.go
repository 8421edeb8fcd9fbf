package importer

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"planobra/internal/config"
	"planobra/internal/matcher"
	"planobra/internal/model"
	"planobra/internal/scheduler"
	"planobra/internal/service/excel"
	"planobra/internal/store"
)

// Coordinator 流水线协调器：参考库导入与排期生成的唯一编排入口
type Coordinator struct {
	store    *store.Store
	business config.BusinessConfig
}

// NewCoordinator 创建协调器
func NewCoordinator(store *store.Store, business config.BusinessConfig) *Coordinator {
	return &Coordinator{store: store, business: business}
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/warning/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// ReferenceImportReport 参考库导入结果
type ReferenceImportReport struct {
	Filename     string            `json:"filename"`
	TotalRows    int               `json:"totalRows"`
	ImportedRows int               `json:"importedRows"`
	SkippedRows  []excel.RowIssue  `json:"skippedRows"`
	TypeCounts   map[string]int    `json:"typeCounts"` // labor/material/other 各多少条
	Duration     time.Duration     `json:"duration"`
}

// ImportReference 导入参考库文件（全量替换）
// 同步执行：参考库规模有限，不值得为它开进度通道
func (c *Coordinator) ImportReference(reader io.Reader, filename string) (*ReferenceImportReport, error) {
	startTime := time.Now()

	logID, err := c.store.CreateImportLog(filename, "reference")
	if err != nil {
		return nil, err
	}

	result, err := excel.NewReferenceReader().Read(reader, excel.ReferenceReadOptions{
		Format:       excel.DetectFormat(filename),
		MaxProbeRows: c.business.MaxHeaderProbeRows,
	})
	if err != nil {
		_ = c.store.UpdateImportLog(logID, 0, 0, 0, "error", err.Error())
		return nil, err
	}

	if err := c.store.ReplaceReferenceEntries(result.Entries, logID); err != nil {
		_ = c.store.UpdateImportLog(logID, result.TotalRows, 0, len(result.Skipped), "error", err.Error())
		return nil, err
	}

	report := &ReferenceImportReport{
		Filename:     filename,
		TotalRows:    result.TotalRows,
		ImportedRows: len(result.Entries),
		SkippedRows:  result.Skipped,
		TypeCounts:   make(map[string]int),
		Duration:     time.Since(startTime),
	}
	for _, e := range result.Entries {
		report.TypeCounts[string(e.ItemType)]++
	}

	if err := c.store.UpdateImportLog(logID, result.TotalRows, len(result.Entries), len(result.Skipped), "success", ""); err != nil {
		return nil, err
	}
	return report, nil
}

// GenerateOptions 排期生成选项
type GenerateOptions struct {
	Filename      string    // 预算文件名，仅用于日志与报告
	Budget        io.Reader // 预算 Excel 内容
	Sheet         string    // 为空时取第一个 sheet
	StartDate     time.Time // 开工日
	DeadlineDays  int       // 工期上限（天），<=0 时用配置默认值
	SegmentBlocks bool      // 是否按编号标题行切分分部
}

// GenerateReport 排期生成结果，done 事件的 Data
type GenerateReport struct {
	ScheduleID       string                 `json:"scheduleId"`
	Filename         string                 `json:"filename"`
	LinesTotal       int                    `json:"linesTotal"`
	LinesMatched     int                    `json:"linesMatched"`
	LinesUnmatched   int                    `json:"linesUnmatched"`
	EntriesEmitted   int                    `json:"entriesEmitted"`
	TotalDays        int                    `json:"totalDays"`
	DeadlineExceeded bool                   `json:"deadlineExceeded"`
	TierCounts       map[string]int         `json:"tierCounts"`
	ReadSkipped      []excel.RowIssue       `json:"readSkipped"`
	ScheduleSkipped  []scheduler.SkipRecord `json:"scheduleSkipped"`
	Duration         time.Duration          `json:"duration"`
}

// GenerateSchedule 生成排期，返回进度通道
// 通道在流程结束（done 或 error 事件之后）关闭
func (c *Coordinator) GenerateSchedule(opts GenerateOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doGenerate(opts, progressChan)
	}()

	return progressChan
}

// doGenerate 执行排期流水线：读预算 → 逐行匹配 → 计算工期并顺序排期 → 持久化
func (c *Coordinator) doGenerate(opts GenerateOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: "开始生成排期",
		Data: map[string]string{
			"filename": opts.Filename,
		},
		Timestamp: time.Now(),
	})

	logID, err := c.store.CreateImportLog(opts.Filename, "budget")
	if err != nil {
		c.sendError(progressChan, logID, fmt.Sprintf("创建导入日志失败: %v", err))
		return
	}

	// 读预算表
	reader := excel.NewBudgetReader()
	if err := reader.LoadFile(opts.Budget); err != nil {
		c.sendError(progressChan, logID, fmt.Sprintf("打开预算文件失败: %v", err))
		return
	}
	defer reader.Close()

	budget, err := reader.Read(excel.BudgetReadOptions{
		Sheet:         opts.Sheet,
		MaxProbeRows:  c.business.MaxHeaderProbeRows,
		SegmentBlocks: opts.SegmentBlocks,
	})
	if err != nil {
		c.sendError(progressChan, logID, fmt.Sprintf("解析预算表失败: %v", err))
		return
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("预算表解析完成: %d 行（表头偏移 %d）", len(budget.Lines), budget.HeaderOffset),
		Data: map[string]interface{}{
			"lines":         len(budget.Lines),
			"header_offset": budget.HeaderOffset,
			"block_count":   budget.BlockCount,
		},
		Timestamp: time.Now(),
	})

	// 加载参考库并构建匹配器
	refEntries, err := c.store.GetAllReferenceEntries()
	if err != nil {
		c.sendError(progressChan, logID, fmt.Sprintf("加载参考库失败: %v", err))
		return
	}
	if len(refEntries) == 0 {
		c.sendError(progressChan, logID, "参考库为空，请先导入参考数据")
		return
	}

	m := matcher.New(refEntries, matcher.Options{
		FuzzyCutoff: c.business.FuzzyCutoff,
		CodeWidth:   c.business.CodeWidth,
	})

	report := &GenerateReport{
		ScheduleID:  uuid.New().String(),
		Filename:    opts.Filename,
		LinesTotal:  len(budget.Lines),
		TierCounts:  make(map[string]int),
		ReadSkipped: budget.Skipped,
	}

	// 逐行匹配并收集人工条目
	var matched []scheduler.MatchedLine
	for _, line := range budget.Lines {
		result := m.Match(line.Code, line.Description)
		report.TierCounts[string(result.Tier)]++

		if !result.Matched() {
			report.LinesUnmatched++
			c.sendProgress(progressChan, ProgressEvent{
				Type:    "warning",
				Message: fmt.Sprintf("第 %d 行未匹配到参考组成: %s %s", line.RowNo, line.Code, line.Description),
				Data: map[string]interface{}{
					"row_no": line.RowNo,
					"code":   line.Code,
				},
				Timestamp: time.Now(),
			})
			continue
		}

		roles := result.LaborEntries()
		if len(roles) == 0 {
			report.LinesUnmatched++
			c.sendProgress(progressChan, ProgressEvent{
				Type:    "warning",
				Message: fmt.Sprintf("第 %d 行命中参考组成但无人工条目: %s", line.RowNo, line.Code),
				Timestamp: time.Now(),
			})
			continue
		}

		report.LinesMatched++
		matched = append(matched, scheduler.MatchedLine{
			Line:  line,
			Tier:  result.Tier,
			Roles: roles,
		})
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("匹配完成: %d/%d 行命中", report.LinesMatched, report.LinesTotal),
		Timestamp: time.Now(),
	})

	// 排期
	deadlineDays := opts.DeadlineDays
	if deadlineDays <= 0 {
		deadlineDays = c.business.DefaultDeadlineDays
	}

	calc := scheduler.NewCalculator(scheduler.CoefficientMode(c.business.CoefficientMode), c.business.DailyHours)
	schedResult, err := scheduler.New(calc).Schedule(matched, opts.StartDate, deadlineDays)
	if err != nil {
		c.sendError(progressChan, logID, err.Error())
		return
	}

	report.EntriesEmitted = len(schedResult.Entries)
	report.TotalDays = schedResult.TotalDays
	report.DeadlineExceeded = schedResult.DeadlineExceeded
	report.ScheduleSkipped = schedResult.Skipped

	if schedResult.DeadlineExceeded {
		c.sendProgress(progressChan, ProgressEvent{
			Type:    "warning",
			Message: fmt.Sprintf("工期超限: 累计 %d 天 > 上限 %d 天，排期在第 %d 行中断", schedResult.TotalDays, deadlineDays, schedResult.LinesProcessed),
			Timestamp: time.Now(),
		})
	}

	// 持久化
	schedule := &model.Schedule{
		ID:               report.ScheduleID,
		StartDate:        opts.StartDate,
		DeadlineDays:     deadlineDays,
		DeadlineExceeded: schedResult.DeadlineExceeded,
		TotalDays:        schedResult.TotalDays,
		Entries:          schedResult.Entries,
	}
	if err := c.store.SaveSchedule(schedule, opts.Filename); err != nil {
		c.sendError(progressChan, logID, fmt.Sprintf("保存排期失败: %v", err))
		return
	}

	report.Duration = time.Since(startTime)

	if err := c.store.UpdateImportLog(logID, report.LinesTotal, report.LinesMatched, report.LinesUnmatched, "success", ""); err != nil {
		c.sendProgress(progressChan, ProgressEvent{
			Type:    "warning",
			Message: fmt.Sprintf("更新导入日志失败: %v", err),
			Timestamp: time.Now(),
		})
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:      "done",
		Message:   "排期生成完成",
		Data:      report,
		Timestamp: time.Now(),
	})
}

// sendError 发送错误事件并落导入日志
func (c *Coordinator) sendError(ch chan ProgressEvent, logID int64, message string) {
	if logID > 0 {
		_ = c.store.UpdateImportLog(logID, 0, 0, 0, "error", message)
	}
	c.sendProgress(ch, ProgressEvent{
		Type:      "error",
		Message:   message,
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
