package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/community-blog-api/internal/apperr"
	"github.com/community-blog-api/internal/database"
	"github.com/community-blog-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Create inserts a new user together with its default profile
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return apperr.Validation("name", "name or email already taken")
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		p := models.NewProfile(user.ID)
		query = `
			INSERT INTO profiles (user_id, hide_mail, reply_post, reply_comment, reply_pm, notify_mention)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query,
			p.UserID, p.HideMail, p.ReplyPost, p.ReplyComment, p.ReplyPM, p.NotifyMention,
		); err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "SELECT id, name, email, created_at FROM users WHERE id = $1", id)
}

// GetByName retrieves a user by name, ignoring case
func (r *userRepo) GetByName(ctx context.Context, name string) (*models.User, error) {
	return r.getOne(ctx, "SELECT id, name, email, created_at FROM users WHERE lower(name) = lower($1)", name)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists checks if a user with the given ID exists
func (r *userRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// GetProfile retrieves the profile of a user
func (r *userRepo) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, rate, rate_count, posts_rate, comments_rate, blogs_rate,
			city, icq, jabber, site, about,
			hide_mail, reply_post, reply_comment, reply_pm, notify_mention
		FROM profiles WHERE user_id = $1
	`

	var p models.Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Rate, &p.RateCount, &p.PostsRate, &p.CommentsRate, &p.BlogsRate,
		&p.City, &p.ICQ, &p.Jabber, &p.Site, &p.About,
		&p.HideMail, &p.ReplyPost, &p.ReplyComment, &p.ReplyPM, &p.NotifyMention,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile stores the editable profile fields; counters are owned by the ledger
func (r *userRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles SET
			city = $1, icq = $2, jabber = $3, site = $4, about = $5,
			hide_mail = $6, reply_post = $7, reply_comment = $8, reply_pm = $9, notify_mention = $10
		WHERE user_id = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		p.City, p.ICQ, p.Jabber, p.Site, p.About,
		p.HideMail, p.ReplyPost, p.ReplyComment, p.ReplyPM, p.NotifyMention,
		p.UserID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("profile_not_found", "profile not found")
	}
	return nil
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
