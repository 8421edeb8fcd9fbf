package scheduler

import (
	"time"

	"planobra/internal/model"
)

// MatchedLine 一条已完成匹配的预算行及其工种
type MatchedLine struct {
	Line  model.BudgetLine
	Tier  model.MatchTier
	Roles []model.ReferenceEntry // 仅人工条目
}

// SkipRecord 被跳过的行/工种，供操作者核对
type SkipRecord struct {
	RowNo  int    `json:"rowNo"`
	Code   string `json:"code"`
	Role   string `json:"role,omitempty"`
	Reason string `json:"reason"`
}

// Result 排期结果
type Result struct {
	Entries          []model.ScheduleEntry
	Skipped          []SkipRecord
	DeadlineExceeded bool
	TotalDays        int // 已消耗的总天数
	LinesProcessed   int // 超期中断前处理到的行数
}

// Scheduler 顺序排期器
// 单游标顺推：同一时刻只有一个工种在干活（刻意的简化，不做并行资源平衡）
type Scheduler struct {
	calc *Calculator
}

// New 创建排期器
func New(calc *Calculator) *Scheduler {
	return &Scheduler{calc: calc}
}

// Schedule 按预算行顺序生成排期
// 游标显式累积：每发射一条，游标推进到其结束日的次日；
// 发射后一旦累计天数超过工期上限立即停止，已发射条目保留并置超期标记。
// 全部行处理完仍无任何条目时返回 model.ErrEmptyResult
func (s *Scheduler) Schedule(lines []MatchedLine, startDate time.Time, deadlineDays int) (Result, error) {
	result := Result{}
	cursor := startDate

	for _, line := range lines {
		result.LinesProcessed++

		for _, role := range line.Roles {
			dur, ok := s.calc.Compute(line.Line.Quantity, role.Coefficient)
			if !ok {
				result.Skipped = append(result.Skipped, SkipRecord{
					RowNo:  line.Line.RowNo,
					Code:   line.Line.Code,
					Role:   role.ItemDescription,
					Reason: "数量或系数非正，无法计算工期",
				})
				continue
			}

			var entry model.ScheduleEntry
			entry, cursor = emit(line, role, dur, cursor, len(result.Entries)+1)
			result.Entries = append(result.Entries, entry)

			result.TotalDays = daysBetween(startDate, cursor)
			if result.TotalDays > deadlineDays {
				result.DeadlineExceeded = true
				return result, nil
			}
		}
	}

	if len(result.Entries) == 0 {
		return result, model.ErrEmptyResult
	}
	return result, nil
}

// emit 发射单条排期并返回推进后的游标
// 条目占用 [cursor, cursor+days-1]，新游标为结束日次日，保证游标单调不减
func emit(line MatchedLine, role model.ReferenceEntry, dur Duration, cursor time.Time, seq int) (model.ScheduleEntry, time.Time) {
	end := cursor.AddDate(0, 0, dur.Days-1)
	entry := model.ScheduleEntry{
		Seq:                seq,
		BlockID:            line.Line.BlockID,
		CompositionCode:    line.Line.Code,
		ServiceDescription: line.Line.Description,
		ProfessionalName:   role.ItemDescription,
		MatchTier:          line.Tier,
		Quantity:           line.Line.Quantity,
		HoursRequired:      dur.Hours,
		DurationDays:       dur.Days,
		StartDate:          cursor,
		EndDate:            end,
	}
	return entry, end.AddDate(0, 0, 1)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
