package db

import (
	"context"
	"time"
)

func (s *SQLiteStore) InsertJobRunLog(ctx context.Context, l *JobRunLog) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO job_run_logs (job_name, status, detail, error_text, started_at) VALUES (?, ?, ?, ?, ?)`,
		l.JobName, string(l.Status), l.Detail, l.ErrorText, l.StartedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateJobRunLog(ctx context.Context, l *JobRunLog) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE job_run_logs SET status = ?, detail = ?, error_text = ?, finished_at = ? WHERE id = ?`,
		string(l.Status), l.Detail, l.ErrorText, l.FinishedAt.UTC(), l.ID,
	)
	return err
}

func (s *SQLiteStore) ListJobRunLogs(ctx context.Context, jobName string, limit int) ([]*JobRunLog, error) {
	query := `SELECT id, job_name, status, detail, error_text, started_at, finished_at FROM job_run_logs`
	var args []any
	if jobName != "" {
		query += ` WHERE job_name = ?`
		args = append(args, jobName)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*JobRunLog
	for rows.Next() {
		l := &JobRunLog{}
		var finished *time.Time
		if err := rows.Scan(&l.ID, &l.JobName, &l.Status, &l.Detail, &l.ErrorText, &l.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished != nil {
			l.FinishedAt = *finished
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
