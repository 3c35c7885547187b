package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/model"
)

const questionColumns = `q.id, q.content, q.options, q.correct_answers, q.status, q.score,
	q.created_by, q.company_id, q.created_at, q.updated_at`

// sortColumns is the allow-list of sortable fields.
var sortColumns = map[string]string{
	"created_at": "q.created_at",
	"score":      "q.score",
	"status":     "q.status",
}

// QuestionRepository handles question and category-link data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row pgx.Row, q *model.Question, extra ...any) error {
	dest := append([]any{
		&q.ID, &q.Content, &q.Options, &q.CorrectAnswers, &q.Status, &q.Score,
		&q.CreatedBy, &q.CompanyID, &q.CreatedAt, &q.UpdatedAt,
	}, extra...)
	return row.Scan(dest...)
}

// Create inserts a new question in pending_review.
func (r *QuestionRepository) Create(ctx context.Context, in model.QuestionInput) (*model.Question, error) {
	var q model.Question
	err := scanQuestion(database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO questions AS q (content, options, correct_answers, status, created_by, company_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+questionColumns,
		in.Content, in.Options, in.CorrectAnswers, model.QuestionStatusPendingReview, in.AuthorID, in.CompanyID,
	), &q)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// FindByID retrieves a question scoped to a company.
func (r *QuestionRepository) FindByID(ctx context.Context, id, companyID int64) (*model.Question, error) {
	var q model.Question
	err := scanQuestion(database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions q WHERE q.id = $1 AND q.company_id = $2`,
		id, companyID,
	), &q)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("question not found")
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// List returns one page of question projections and the total match count.
func (r *QuestionRepository) List(ctx context.Context, f model.QuestionFilter, viewerID int64) ([]model.QuestionView, int, error) {
	where, args := buildQuestionFilter(f)
	db := database.Conn(ctx, r.pool)

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM questions q WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns["created_at"]
	}
	dir := "DESC"
	if f.SortOrder == "ASC" {
		dir = "ASC"
	}

	n := len(args)
	args = append(args, viewerID, f.Limit, f.Offset())
	query := fmt.Sprintf(`
		SELECT %s,
			COALESCE(u.name, ''),
			COALESCE((
				SELECT ARRAY_AGG(DISTINCT c.name ORDER BY c.name)
				FROM question_categories qc JOIN categories c ON c.id = qc.category_id
				WHERE qc.question_id = q.id
			), '{}'),
			(SELECT COUNT(*) FROM votes v WHERE v.question_id = q.id AND v.vote_type = 'up'),
			(SELECT COUNT(*) FROM votes v WHERE v.question_id = q.id AND v.vote_type = 'down'),
			(SELECT v.vote_type FROM votes v WHERE v.question_id = q.id AND v.user_id = $%d)
		FROM questions q
		LEFT JOIN users u ON u.id = q.created_by
		WHERE %s
		ORDER BY %s %s, q.id %s
		LIMIT $%d OFFSET $%d`,
		questionColumns, n+1, where, col, dir, dir, n+2, n+3)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	views := make([]model.QuestionView, 0, f.Limit)
	for rows.Next() {
		var v model.QuestionView
		if err := scanQuestion(rows, &v.Question,
			&v.AuthorName, &v.Categories, &v.Votes.Up, &v.Votes.Down, &v.UserVote,
		); err != nil {
			return nil, 0, err
		}
		views = append(views, v)
	}
	return views, total, rows.Err()
}

func buildQuestionFilter(f model.QuestionFilter) (string, []any) {
	clauses := []string{"q.company_id = $1"}
	args := []any{f.CompanyID}

	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("q.status = $%d", len(args)))
	}
	if f.CategoryID > 0 {
		args = append(args, f.CategoryID)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM question_categories qc WHERE qc.question_id = q.id AND qc.category_id = $%d)", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		clauses = append(clauses, fmt.Sprintf(`q.content ILIKE $%d ESCAPE '\'`, len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Update applies a partial update and returns the stored row.
func (r *QuestionRepository) Update(ctx context.Context, id int64, p model.QuestionPatch) (*model.Question, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	if p.Content != nil {
		args = append(args, *p.Content)
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}
	if p.Options != nil {
		args = append(args, p.Options)
		sets = append(sets, fmt.Sprintf("options = $%d", len(args)))
	}
	if p.CorrectAnswers != nil {
		args = append(args, p.CorrectAnswers)
		sets = append(sets, fmt.Sprintf("correct_answers = $%d", len(args)))
	}
	if p.Status != nil {
		args = append(args, *p.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	var q model.Question
	err := scanQuestion(database.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE questions AS q SET `+strings.Join(sets, ", ")+` WHERE q.id = $1 RETURNING `+questionColumns,
		args...,
	), &q)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("question not found")
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// SetStatus moves a question to status.
func (r *QuestionRepository) SetStatus(ctx context.Context, id int64, status model.QuestionStatus) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE questions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("question not found")
	}
	return nil
}

// Delete removes a question; votes, history and category links cascade.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("question not found")
	}
	return nil
}

// LinkCategories associates a question with categories owned by companyID.
// Ids that do not resolve inside the company fail the whole call.
func (r *QuestionRepository) LinkCategories(ctx context.Context, questionID, companyID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	tag, err := database.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO question_categories (question_id, category_id)
		 SELECT $1, c.id
		 FROM UNNEST($2::bigint[]) AS u(category_id)
		 JOIN categories c ON c.id = u.category_id AND c.company_id = $3`,
		questionID, categoryIDs, companyID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() < int64(len(categoryIDs)) {
		return apperror.BadRequest(apperror.CodeCategoryNotFound, "one or more categories do not exist")
	}
	return nil
}

// UnlinkCategories removes every category association of a question.
func (r *QuestionRepository) UnlinkCategories(ctx context.Context, questionID int64) error {
	_, err := database.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM question_categories WHERE question_id = $1`, questionID,
	)
	return err
}

// CategoryIDs returns the category ids linked to a question, ascending.
func (r *QuestionRepository) CategoryIDs(ctx context.Context, questionID int64) ([]int64, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT DISTINCT category_id FROM question_categories WHERE question_id = $1 ORDER BY category_id`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// CategoryNames returns the names of categories linked to a question.
func (r *QuestionRepository) CategoryNames(ctx context.Context, questionID int64) ([]string, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT DISTINCT c.name
		 FROM question_categories qc JOIN categories c ON c.id = qc.category_id
		 WHERE qc.question_id = $1
		 ORDER BY c.name`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
