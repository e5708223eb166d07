package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cleanestdotsol/viralreels/internal/models"
)

const scriptColumns = `id, user_id, topic, hook, fact1, fact2, fact3, fact4, payoff,
	viral_score, created_at`

// ScriptRepository is the data access layer for scripts.
type ScriptRepository struct {
	db *DB
}

// NewScriptRepository creates a new ScriptRepository.
func NewScriptRepository(db *DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

// Create inserts a new script.
func (r *ScriptRepository) Create(ctx context.Context, script *models.Script) error {
	if script.ID == "" {
		script.ID = uuid.New().String()
	}
	if script.CreatedAt.IsZero() {
		script.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scripts (`+scriptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		script.ID, script.UserID, script.Topic,
		script.Hook, script.Fact1, script.Fact2, script.Fact3, script.Fact4, script.Payoff,
		script.ViralScore, script.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create script: %w", err)
	}
	return nil
}

// GetByID returns a script by id, or nil if it does not exist.
func (r *ScriptRepository) GetByID(ctx context.Context, id string) (*models.Script, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+scriptColumns+` FROM scripts WHERE id = ?`, id)

	var s models.Script
	err := row.Scan(
		&s.ID, &s.UserID, &s.Topic,
		&s.Hook, &s.Fact1, &s.Fact2, &s.Fact3, &s.Fact4, &s.Payoff,
		&s.ViralScore, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUser returns a user's scripts, best score first.
func (r *ScriptRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Script, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+scriptColumns+` FROM scripts
		WHERE user_id = ? ORDER BY viral_score DESC, created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []models.Script
	for rows.Next() {
		var s models.Script
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Topic,
			&s.Hook, &s.Fact1, &s.Fact2, &s.Fact3, &s.Fact4, &s.Payoff,
			&s.ViralScore, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, rows.Err()
}
