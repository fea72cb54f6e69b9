package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

const scholarshipQuery = `
	SELECT
		s.id,
		s.name,
		s.description,
		s.deadline,
		s.recommendation_count,
		s.documents_required,
		s.created_at,
		s.version,
		p.prompt
	FROM scholarships s
	LEFT JOIN scholarship_essay_prompts p ON s.id = p.scholarship_id
`

// scanScholarships 把 LEFT JOIN 得到的多行结果按奖学金聚合，保留查询中的顺序
func scanScholarships(rows *sql.Rows) ([]*domain.Scholarship, error) {
	scholarshipsMap := make(map[int64]*domain.Scholarship)
	ordered := make([]*domain.Scholarship, 0)

	for rows.Next() {
		var row struct {
			ID                  int64
			Name                string
			Description         string
			Deadline            time.Time
			RecommendationCount int32
			DocumentsRequired   int32
			CreatedAt           time.Time
			Version             int32

			Prompt sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Description,
			&row.Deadline,
			&row.RecommendationCount,
			&row.DocumentsRequired,
			&row.CreatedAt,
			&row.Version,
			&row.Prompt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		scholarship, exists := scholarshipsMap[row.ID]
		if !exists {
			// 第一次查到这个奖学金
			scholarship = &domain.Scholarship{
				ID:                  row.ID,
				Name:                row.Name,
				Description:         row.Description,
				Deadline:            *datePtr(sql.NullTime{Time: row.Deadline, Valid: true}),
				EssayPrompts:        make([]string, 0),
				RecommendationCount: row.RecommendationCount,
				DocumentsRequired:   row.DocumentsRequired,
				CreatedAt:           row.CreatedAt,
				Version:             row.Version,
			}
			scholarshipsMap[row.ID] = scholarship
			ordered = append(ordered, scholarship)
		}

		// prompt 为空说明这个奖学金不需要作文
		if !row.Prompt.Valid {
			continue
		}
		scholarship.EssayPrompts = append(scholarship.EssayPrompts, row.Prompt.String)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ordered, nil
}

func (r *Repository) GetAllScholarships() ([]*domain.Scholarship, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, scholarshipQuery+` ORDER BY s.deadline, s.id, p.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanScholarships(rows)
}

func (r *Repository) GetScholarshipByID(id int64) (*domain.Scholarship, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, scholarshipQuery+` WHERE s.id = $1 ORDER BY p.position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scholarships, err := scanScholarships(rows)
	if err != nil {
		return nil, err
	}
	if len(scholarships) == 0 {
		return nil, sql.ErrNoRows
	}

	return scholarships[0], nil
}

func insertEssayPrompts(ctx context.Context, tx *sql.Tx, scholarshipID int64, prompts []string) error {
	query := `
		INSERT INTO scholarship_essay_prompts (scholarship_id, position, prompt)
		VALUES ($1, $2, $3)
	`
	for i, prompt := range prompts {
		if _, err := tx.ExecContext(ctx, query, scholarshipID, i, prompt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) CreateScholarship(scholarship *domain.Scholarship) error {
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
		INSERT INTO scholarships (name, description, deadline, recommendation_count, documents_required)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`
	args := []any{scholarship.Name, scholarship.Description, scholarship.Deadline, scholarship.RecommendationCount, scholarship.DocumentsRequired}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&scholarship.ID, &scholarship.CreatedAt, &scholarship.Version); err != nil {
		return err
	}

	if err := insertEssayPrompts(ctx, tx, scholarship.ID, scholarship.EssayPrompts); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateScholarship 更新奖学金信息并整体替换作文题目
// 截止日期和作文数量变化后，已有排期不会自动重算，需要学生主动触发
func (r *Repository) UpdateScholarship(scholarship *domain.Scholarship) error {
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
		UPDATE scholarships
		SET
			name = $1,
			description = $2,
			deadline = $3,
			recommendation_count = $4,
			documents_required = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`
	args := []any{
		scholarship.Name,
		scholarship.Description,
		scholarship.Deadline,
		scholarship.RecommendationCount,
		scholarship.DocumentsRequired,
		scholarship.ID,
		scholarship.Version,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&scholarship.Version); err != nil {
		return versionChecked(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scholarship_essay_prompts WHERE scholarship_id = $1`, scholarship.ID); err != nil {
		return err
	}
	if err := insertEssayPrompts(ctx, tx, scholarship.ID, scholarship.EssayPrompts); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DeleteScholarship(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, `DELETE FROM scholarships WHERE id = $1`, id)
	return err
}
