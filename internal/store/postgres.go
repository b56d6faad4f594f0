package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/reelagent/reelagent/internal/models"
)

// PostgresStore backs the JobStore contract with a jobs table. It is
// selected when DATABASE_URL is configured; otherwise the in-memory store
// is used. The merge semantics mirror MemoryStore: unknown ids are no-ops
// and terminal jobs only accept log appends.
type PostgresStore struct {
	db *sql.DB
}

var _ JobStore = (*PostgresStore)(nil)

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, req models.CreateJobRequest) (*models.Job, error) {
	job := &models.Job{
		ID:           uuid.New().String(),
		Topic:        req.Topic,
		Status:       models.StatusPending,
		SceneCount:   req.SceneCount,
		ImageStyle:   req.ImageStyle,
		Tone:         req.Tone,
		DurationMode: req.DurationMode,
		RenderMode:   req.RenderMode,
		TemplateID:   req.TemplateID,
		Logs:         []string{"Job created."},
	}

	logs, _ := json.Marshal(job.Logs)

	query := `
		INSERT INTO jobs (
			id, topic, status, scene_count, image_style, tone,
			duration_mode, render_mode, template_id, logs
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(
		ctx, query,
		job.ID, job.Topic, job.Status, job.SceneCount, job.ImageStyle, job.Tone,
		job.DurationMode, job.RenderMode, job.TemplateID, logs,
	).Scan(&job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, selectJob+` WHERE id = $1`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx, selectJob+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id string, upd models.JobUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	var status models.JobStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return nil // stale id, no-op
	}
	if err != nil {
		return fmt.Errorf("failed to lock job: %w", err)
	}
	if status.Terminal() {
		return nil
	}

	if upd.Status != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET status = $1 WHERE id = $2`, *upd.Status, id); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
	}
	if upd.Script != nil {
		script, err := json.Marshal(upd.Script)
		if err != nil {
			return fmt.Errorf("failed to marshal script: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET script = $1 WHERE id = $2`, script, id); err != nil {
			return fmt.Errorf("failed to update script: %w", err)
		}
	}
	if upd.VideoPath != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET video_path = $1 WHERE id = $2`, *upd.VideoPath, id); err != nil {
			return fmt.Errorf("failed to update video path: %w", err)
		}
	}
	if upd.ErrorMsg != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET error_msg = $1 WHERE id = $2`, *upd.ErrorMsg, id); err != nil {
			return fmt.Errorf("failed to update error: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) AddLog(ctx context.Context, id, message string) error {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)
	entry, _ := json.Marshal([]string{line})

	// Appends even when the job is terminal; logs stay mutable.
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET logs = COALESCE(logs, '[]'::jsonb) || $1::jsonb WHERE id = $2`,
		entry, id,
	)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

const selectJob = `
	SELECT
		id, topic, status, scene_count, image_style, tone,
		duration_mode, render_mode, template_id,
		script, video_path, error_msg, logs, created_at
	FROM jobs`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job        models.Job
		templateID sql.NullString
		videoPath  sql.NullString
		errorMsg   sql.NullString
		script     []byte
		logs       []byte
	)

	err := row.Scan(
		&job.ID, &job.Topic, &job.Status, &job.SceneCount, &job.ImageStyle, &job.Tone,
		&job.DurationMode, &job.RenderMode, &templateID,
		&script, &videoPath, &errorMsg, &logs, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.TemplateID = templateID.String
	job.VideoPath = videoPath.String
	job.ErrorMsg = errorMsg.String
	if len(script) > 0 {
		if err := json.Unmarshal(script, &job.Script); err != nil {
			return nil, fmt.Errorf("failed to unmarshal script: %w", err)
		}
	}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &job.Logs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logs: %w", err)
		}
	}
	return &job, nil
}
