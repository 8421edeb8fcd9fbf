package model

import (
	"errors"
	"time"
)

// DateLayout 排期日期的展示格式（巴西习惯 dd/mm/yyyy）
const DateLayout = "02/01/2006"

// ScheduleEntry 排期输出中的一行：一条预算行的一个工种
type ScheduleEntry struct {
	Seq                int       `json:"seq"` // 发射顺序（1 起）
	BlockID            string    `json:"blockId"`
	CompositionCode    string    `json:"compositionCode"`
	ServiceDescription string    `json:"serviceDescription"`
	ProfessionalName   string    `json:"professionalName"`
	MatchTier          MatchTier `json:"matchTier"`
	Quantity           float64   `json:"quantity"`
	HoursRequired      float64   `json:"hoursRequired"`
	DurationDays       int       `json:"durationDays"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
}

// Schedule 一次排期的完整结果
type Schedule struct {
	ID               string          `json:"id"`
	StartDate        time.Time       `json:"startDate"`
	DeadlineDays     int             `json:"deadlineDays"`
	DeadlineExceeded bool            `json:"deadlineExceeded"` // 超期为警示而非失败，已发射条目保留
	TotalDays        int             `json:"totalDays"`        // 已消耗的总天数
	Entries          []ScheduleEntry `json:"entries"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ErrEmptyResult 全部预算行处理完后没有产生任何排期条目
// 区别于单行未命中（常见且仅记警告），整体为空时向调用方报失败
var ErrEmptyResult = errors.New("未生成任何排期条目：请检查预算数量列与参考库是否匹配")
