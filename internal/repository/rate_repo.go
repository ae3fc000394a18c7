package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
)

// rateTable describes where a rating kind is audited and counted
type rateTable struct {
	audit      string // one row per (subject, user)
	subject    string
	subjectKey string
	counter    string // rater's profile counter, empty for none
}

var rateTables = map[models.RateKind]rateTable{
	models.RateKindPost:    {audit: "post_rates", subject: "posts", subjectKey: "id", counter: "posts_rate"},
	models.RateKindComment: {audit: "comment_rates", subject: "comments", subjectKey: "id", counter: "comments_rate"},
	models.RateKindBlog:    {audit: "blog_rates", subject: "blogs", subjectKey: "id", counter: "blogs_rate"},
	models.RateKindUser:    {audit: "user_rates", subject: "profiles", subjectKey: "user_id"},
}

// rateAuditQuery inserts nothing for a duplicate (subject, user) pair, so a
// repeated rating shows up as zero affected rows and never aborts the tx
const rateAuditQuery = `
	INSERT INTO %s (subject_id, user_id, delta, created_at) VALUES ($1, $2, $3, NOW())
	ON CONFLICT (subject_id, user_id) DO NOTHING
`

// rateRepo is the concrete implementation of RateRepository
type rateRepo struct {
	db *database.DB
}

// NewRateRepo creates a new rating ledger
func NewRateRepo(db *database.DB) RateRepository {
	return &rateRepo{db: db}
}

// Apply records a rating. The audit insert comes first so a concurrent
// duplicate blocks on the unique index and then inserts nothing.
func (r *rateRepo) Apply(ctx context.Context, kind models.RateKind, subjectID, userID string, delta int) (models.RateResult, error) {
	var result models.RateResult

	t, ok := rateTables[kind]
	if !ok {
		return result, apperr.Validation("kind", fmt.Sprintf("unknown rating kind: %s", kind))
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, fmt.Sprintf(rateAuditQuery, t.audit), subjectID, userID, delta)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperr.NotFound(string(kind)+"_not_found", fmt.Sprintf("%s not found", kind))
			}
			return fmt.Errorf("failed to record rating: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return nil
		}

		err = tx.QueryRowContext(ctx, fmt.Sprintf(`
			UPDATE %s SET rate = rate + $1, rate_count = rate_count + 1
			WHERE %s = $2 RETURNING rate, rate_count
		`, t.subject, t.subjectKey), delta, subjectID).Scan(&result.Rate, &result.RateCount)
		if err == sql.ErrNoRows {
			return apperr.NotFound(string(kind)+"_not_found", fmt.Sprintf("%s not found", kind))
		}
		if err != nil {
			return fmt.Errorf("failed to update %s rate: %w", kind, err)
		}

		if t.counter != "" {
			res, err := tx.ExecContext(ctx, fmt.Sprintf(
				"UPDATE profiles SET %s = %s + 1 WHERE user_id = $1", t.counter, t.counter,
			), userID)
			if err != nil {
				return fmt.Errorf("failed to update rater profile: %w", err)
			}
			if rows, _ := res.RowsAffected(); rows == 0 {
				return apperr.NotFound("profile_not_found", "rater profile not found")
			}
		}

		result.Applied = true
		return nil
	})
	if err != nil {
		return models.RateResult{}, err
	}
	return result, nil
}

// HasRated checks whether userID already rated the subject
func (r *rateRepo) HasRated(ctx context.Context, kind models.RateKind, subjectID, userID string) (bool, error) {
	t, ok := rateTables[kind]
	if !ok {
		return false, apperr.Validation("kind", fmt.Sprintf("unknown rating kind: %s", kind))
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE subject_id = $1 AND user_id = $2)", t.audit,
	), subjectID, userID).Scan(&exists)
	return exists, err
}
