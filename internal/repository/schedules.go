package repository

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

const scheduleQuery = `
	SELECT
		sc.id,
		sc.application_id,
		s.name,
		sc.deadline,
		sc.essay_count,
		sc.recommendation_count,
		sc.start_essay_date,
		sc.request_recs_date,
		sc.upload_docs_date,
		sc.final_review_date,
		sc.submit_date,
		sc.estimated_hours,
		sc.has_conflicts,
		sc.status,
		sc.deferred_days,
		sc.created_at,
		sc.updated_at,
		sc.version,
		c.conflicting_application_id
	FROM application_schedules sc
	JOIN applications a ON sc.application_id = a.id
	JOIN scholarships s ON a.scholarship_id = s.id
	LEFT JOIN schedule_conflicts c ON sc.id = c.schedule_id
`

func scanSchedules(rows *sql.Rows) ([]*domain.Schedule, error) {
	schedulesMap := make(map[int64]*domain.Schedule)
	ordered := make([]*domain.Schedule, 0)

	for rows.Next() {
		var row struct {
			ID                  int64
			ApplicationID       int64
			ApplicationName     string
			Deadline            sql.NullTime
			EssayCount          int32
			RecommendationCount int32
			StartEssayDate      sql.NullTime
			RequestRecsDate     sql.NullTime
			UploadDocsDate      sql.NullTime
			FinalReviewDate     sql.NullTime
			SubmitDate          sql.NullTime
			EstimatedHours      int32
			HasConflicts        bool
			Status              domain.ScheduleStatus
			DeferredDays        int32
			CreatedAt           time.Time
			UpdatedAt           time.Time
			Version             int32

			ConflictingApplicationID sql.NullInt64
		}

		dst := []any{
			&row.ID,
			&row.ApplicationID,
			&row.ApplicationName,
			&row.Deadline,
			&row.EssayCount,
			&row.RecommendationCount,
			&row.StartEssayDate,
			&row.RequestRecsDate,
			&row.UploadDocsDate,
			&row.FinalReviewDate,
			&row.SubmitDate,
			&row.EstimatedHours,
			&row.HasConflicts,
			&row.Status,
			&row.DeferredDays,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.Version,
			&row.ConflictingApplicationID,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		schedule, exists := schedulesMap[row.ID]
		if !exists {
			schedule = &domain.Schedule{
				ID:                  row.ID,
				ApplicationID:       row.ApplicationID,
				ApplicationName:     row.ApplicationName,
				EssayCount:          row.EssayCount,
				RecommendationCount: row.RecommendationCount,
				StartEssayDate:      datePtr(row.StartEssayDate),
				RequestRecsDate:     datePtr(row.RequestRecsDate),
				UploadDocsDate:      datePtr(row.UploadDocsDate),
				FinalReviewDate:     datePtr(row.FinalReviewDate),
				SubmitDate:          datePtr(row.SubmitDate),
				EstimatedHours:      row.EstimatedHours,
				HasConflicts:        row.HasConflicts,
				ConflictsWith:       make([]int64, 0),
				Status:              row.Status,
				DeferredDays:        row.DeferredDays,
				CreatedAt:           row.CreatedAt,
				UpdatedAt:           row.UpdatedAt,
				Version:             row.Version,
			}
			if d := datePtr(row.Deadline); d != nil {
				schedule.Deadline = *d
			}
			schedulesMap[row.ID] = schedule
			ordered = append(ordered, schedule)
		}

		if !row.ConflictingApplicationID.Valid {
			continue
		}
		schedule.ConflictsWith = append(schedule.ConflictsWith, row.ConflictingApplicationID.Int64)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, schedule := range ordered {
		slices.Sort(schedule.ConflictsWith)
	}

	return ordered, nil
}

func (r *Repository) GetScheduleByApplicationID(applicationID int64) (*domain.Schedule, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, scheduleQuery+` WHERE sc.application_id = $1`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules, err := scanSchedules(rows)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, sql.ErrNoRows
	}

	return schedules[0], nil
}

// GetActiveSchedulesByStudentID 返回学生所有未结束申请的排期，已提交、已撤回、已出结果的申请不参与统计
func (r *Repository) GetActiveSchedulesByStudentID(studentID int64) ([]*domain.Schedule, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := scheduleQuery + `
		WHERE a.student_id = $1 AND a.status NOT IN ($2, $3, $4)
		ORDER BY sc.deadline, sc.application_id
	`
	args := []any{
		studentID,
		domain.ApplicationStatusSubmitted,
		domain.ApplicationStatusWithdrawn,
		domain.ApplicationStatusDecided,
	}

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// scheduleInsertArgs 生成插入排期所需的参数
// 截止日期与作文、推荐信数量在提交排期时固定下来，之后修改奖学金不会影响已有排期
func scheduleInsertArgs(schedule *domain.Schedule) []any {
	return []any{
		schedule.ApplicationID,
		nullDate(&schedule.Deadline),
		schedule.EssayCount,
		schedule.RecommendationCount,
		nullDate(schedule.StartEssayDate),
		nullDate(schedule.RequestRecsDate),
		nullDate(schedule.UploadDocsDate),
		nullDate(schedule.FinalReviewDate),
		nullDate(schedule.SubmitDate),
		schedule.EstimatedHours,
		schedule.HasConflicts,
		schedule.Status,
		schedule.DeferredDays,
	}
}

func insertSchedule(ctx context.Context, tx *sql.Tx, schedule *domain.Schedule) error {
	query := `
		INSERT INTO application_schedules (
			application_id,
			deadline,
			essay_count,
			recommendation_count,
			start_essay_date,
			request_recs_date,
			upload_docs_date,
			final_review_date,
			submit_date,
			estimated_hours,
			has_conflicts,
			status,
			deferred_days
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at, version
	`
	args := scheduleInsertArgs(schedule)
	dst := []any{&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt, &schedule.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return replaceConflicts(ctx, tx, schedule)
}

// replaceConflicts 用 schedule.ConflictsWith 整体替换冲突记录
func replaceConflicts(ctx context.Context, tx *sql.Tx, schedule *domain.Schedule) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_conflicts WHERE schedule_id = $1`, schedule.ID); err != nil {
		return err
	}

	query := `
		INSERT INTO schedule_conflicts (schedule_id, conflicting_application_id)
		VALUES ($1, $2)
	`
	for _, applicationID := range schedule.ConflictsWith {
		if _, err := tx.ExecContext(ctx, query, schedule.ID, applicationID); err != nil {
			return err
		}
	}

	return nil
}

// UpdateSchedules 在同一个事务中保存一组排期
// 重新计算或推迟某个排期后，其他排期的冲突标记也可能变化，这些修改必须一起生效
// 任意一条记录的版本号不匹配都会导致整个事务回滚并返回 ErrVersionConflict
func (r *Repository) UpdateSchedules(schedules []*domain.Schedule) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE application_schedules
		SET
			start_essay_date = $1,
			request_recs_date = $2,
			upload_docs_date = $3,
			final_review_date = $4,
			submit_date = $5,
			estimated_hours = $6,
			has_conflicts = $7,
			status = $8,
			deferred_days = $9,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $10 AND version = $11
		RETURNING updated_at, version
	`

	for _, schedule := range schedules {
		args := []any{
			nullDate(schedule.StartEssayDate),
			nullDate(schedule.RequestRecsDate),
			nullDate(schedule.UploadDocsDate),
			nullDate(schedule.FinalReviewDate),
			nullDate(schedule.SubmitDate),
			schedule.EstimatedHours,
			schedule.HasConflicts,
			schedule.Status,
			schedule.DeferredDays,
			schedule.ID,
			schedule.Version,
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&schedule.UpdatedAt, &schedule.Version); err != nil {
			return versionChecked(err)
		}

		if err := replaceConflicts(ctx, tx, schedule); err != nil {
			return err
		}
	}

	return tx.Commit()
}
