package store

import (
	"fmt"
	"time"

	"planobra/internal/model"
)

// SaveSchedule 持久化一次排期结果（头表 + 明细，单事务）
func (s *Store) SaveSchedule(schedule *model.Schedule, sourceFilename string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	deadlineExceeded := 0
	if schedule.DeadlineExceeded {
		deadlineExceeded = 1
	}

	if _, err := tx.Exec(`
		INSERT INTO schedules (id, source_filename, start_date, deadline_days, deadline_exceeded, total_days)
		VALUES (?, ?, ?, ?, ?, ?)
	`, schedule.ID, sourceFilename, schedule.StartDate.Format(model.DateLayout),
		schedule.DeadlineDays, deadlineExceeded, schedule.TotalDays); err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO schedule_entries
			(schedule_id, seq, block_id, composition_code, service_description,
			 professional_name, match_tier, quantity, hours_required, duration_days,
			 start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range schedule.Entries {
		if _, err := stmt.Exec(schedule.ID, e.Seq, e.BlockID, e.CompositionCode,
			e.ServiceDescription, e.ProfessionalName, string(e.MatchTier),
			e.Quantity, e.HoursRequired, e.DurationDays,
			e.StartDate.Format(model.DateLayout), e.EndDate.Format(model.DateLayout)); err != nil {
			return fmt.Errorf("failed to insert schedule entry %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

// GetSchedule 读取一次排期结果
func (s *Store) GetSchedule(id string) (*model.Schedule, error) {
	schedule := &model.Schedule{ID: id}

	var startDate, createdAt string
	var deadlineExceeded int
	err := s.db.QueryRow(`
		SELECT start_date, deadline_days, deadline_exceeded, total_days, created_at
		FROM schedules WHERE id = ?
	`, id).Scan(&startDate, &schedule.DeadlineDays, &deadlineExceeded, &schedule.TotalDays, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule %s: %w", id, err)
	}
	schedule.DeadlineExceeded = deadlineExceeded != 0
	if t, err := time.Parse(model.DateLayout, startDate); err == nil {
		schedule.StartDate = t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		schedule.CreatedAt = t
	}

	rows, err := s.db.Query(`
		SELECT seq, block_id, composition_code, service_description, professional_name,
		       match_tier, quantity, hours_required, duration_days, start_date, end_date
		FROM schedule_entries WHERE schedule_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e model.ScheduleEntry
		var tier, start, end string
		if err := rows.Scan(&e.Seq, &e.BlockID, &e.CompositionCode, &e.ServiceDescription,
			&e.ProfessionalName, &tier, &e.Quantity, &e.HoursRequired, &e.DurationDays,
			&start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.MatchTier = model.MatchTier(tier)
		if t, err := time.Parse(model.DateLayout, start); err == nil {
			e.StartDate = t
		}
		if t, err := time.Parse(model.DateLayout, end); err == nil {
			e.EndDate = t
		}
		schedule.Entries = append(schedule.Entries, e)
	}
	return schedule, rows.Err()
}

// ListSchedules 排期历史（倒序）
func (s *Store) ListSchedules(limit int) ([]*model.Schedule, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, start_date, deadline_days, deadline_exceeded, total_days, created_at
		FROM schedules ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var out []*model.Schedule
	for rows.Next() {
		sc := &model.Schedule{}
		var startDate, createdAt string
		var deadlineExceeded int
		if err := rows.Scan(&sc.ID, &startDate, &sc.DeadlineDays, &deadlineExceeded, &sc.TotalDays, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		sc.DeadlineExceeded = deadlineExceeded != 0
		if t, err := time.Parse(model.DateLayout, startDate); err == nil {
			sc.StartDate = t
		}
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			sc.CreatedAt = t
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// CountSchedules 排期总数
func (s *Store) CountSchedules() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM schedules`).Scan(&n)
	return n, err
}
