package repository

import (
	"database/sql"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

const applicationQuery = `
	SELECT
		a.id,
		a.student_id,
		a.scholarship_id,
		s.name,
		s.deadline,
		(SELECT COUNT(*) FROM scholarship_essay_prompts p WHERE p.scholarship_id = s.id),
		s.recommendation_count,
		s.documents_required,
		a.status,
		a.priority_tier,
		a.essays_completed,
		a.documents_uploaded,
		a.recommendations_received,
		a.created_at,
		a.version
	FROM applications a
	JOIN scholarships s ON a.scholarship_id = s.id
`

func scanApplication(row rowScanner) (*domain.Application, error) {
	app := &domain.Application{}
	var deadline sql.NullTime

	dst := []any{
		&app.ID,
		&app.StudentID,
		&app.ScholarshipID,
		&app.ScholarshipName,
		&deadline,
		&app.EssayCount,
		&app.RecommendationCount,
		&app.Progress.DocumentsRequired,
		&app.Status,
		&app.PriorityTier,
		&app.Progress.EssaysCompleted,
		&app.Progress.DocumentsUploaded,
		&app.Progress.RecommendationsReceived,
		&app.CreatedAt,
		&app.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if d := datePtr(deadline); d != nil {
		app.Deadline = *d
	}
	// 需要完成的数量来自奖学金本身
	app.Progress.EssaysRequired = app.EssayCount
	app.Progress.RecommendationsRequired = app.RecommendationCount

	return app, nil
}

func (r *Repository) GetApplicationByID(id int64) (*domain.Application, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanApplication(r.dbpool.QueryRowContext(ctx, applicationQuery+` WHERE a.id = $1`, id))
}

// GetApplicationsByStudentID 返回学生的全部申请（包括已经结束的），按截止日期排序
func (r *Repository) GetApplicationsByStudentID(studentID int64) ([]*domain.Application, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, applicationQuery+` WHERE a.student_id = $1 ORDER BY s.deadline, a.id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]*domain.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return apps, nil
}

// CreateApplicationWithSchedule 在同一个事务中创建申请和它的排期
// 申请与排期一一对应，不允许出现只有申请没有排期的情况
func (r *Repository) CreateApplicationWithSchedule(app *domain.Application, schedule *domain.Schedule) error {
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
		INSERT INTO applications (student_id, scholarship_id, status, priority_tier)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	args := []any{app.StudentID, app.ScholarshipID, app.Status, app.PriorityTier}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&app.ID, &app.CreatedAt, &app.Version); err != nil {
		return err
	}

	schedule.ApplicationID = app.ID
	if err := insertSchedule(ctx, tx, schedule); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) UpdateApplication(app *domain.Application) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		UPDATE applications
		SET
			status = $1,
			priority_tier = $2,
			essays_completed = $3,
			documents_uploaded = $4,
			recommendations_received = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`
	args := []any{
		app.Status,
		app.PriorityTier,
		app.Progress.EssaysCompleted,
		app.Progress.DocumentsUploaded,
		app.Progress.RecommendationsReceived,
		app.ID,
		app.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&app.Version); err != nil {
		return versionChecked(err)
	}

	return nil
}
