package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"telemetry-go/internal/alarms"
	"telemetry-go/internal/domain"
)

const alarmColumns = "id, rule_id, device_id, description, severity, status, date_created, date_modified"

// Service implements alarms.Service using PostgreSQL.
type Service struct {
	db *DB
}

// NewService creates a PostgreSQL-backed alarms service.
func NewService(db *DB) *Service {
	return &Service{db: db}
}

// Get retrieves a single alarm by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Alarm, error) {
	query := fmt.Sprintf("SELECT %s FROM alarms WHERE id = $1", alarmColumns)

	alarm, err := scanAlarm(s.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("alarm %q not found", id)
		}
		return nil, fmt.Errorf("failed to get alarm: %w", err)
	}
	return alarm, nil
}

// List retrieves alarms in the window, filtered, ordered and paginated.
func (s *Service) List(ctx context.Context, from, to time.Time, order string, skip, limit int, devices []string) ([]*domain.Alarm, error) {
	return s.list(ctx, "", from, to, order, skip, limit, devices)
}

// ListByRule is List restricted to one rule.
func (s *Service) ListByRule(ctx context.Context, ruleID string, from, to time.Time, order string, skip, limit int, devices []string) ([]*domain.Alarm, error) {
	return s.list(ctx, ruleID, from, to, order, skip, limit, devices)
}

func (s *Service) list(ctx context.Context, ruleID string, from, to time.Time, order string, skip, limit int, devices []string) ([]*domain.Alarm, error) {
	if skip < 0 || limit <= 0 {
		return nil, domain.NewInvalidInput("invalid page bounds: skip %d, limit %d", skip, limit)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM alarms
		WHERE date_created >= $1 AND date_created <= $2
	`, alarmColumns)
	args := []interface{}{from, to}
	argNum := 3

	if ruleID != "" {
		query += fmt.Sprintf(" AND rule_id = $%d", argNum)
		args = append(args, ruleID)
		argNum++
	}

	if len(devices) > 0 {
		query += fmt.Sprintf(" AND device_id = ANY($%d)", argNum)
		args = append(args, devices)
		argNum++
	}

	if order == "asc" {
		query += " ORDER BY date_created ASC"
	} else {
		query += " ORDER BY date_created DESC"
	}

	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, limit, skip)

	rows, err := s.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alarms: %w", err)
	}
	defer rows.Close()

	return scanAlarms(rows)
}

// CountByRule counts alarms for one rule in the window across the
// device filter.
func (s *Service) CountByRule(ctx context.Context, ruleID string, from, to time.Time, devices []string) (int, error) {
	query := `
		SELECT COUNT(*) FROM alarms
		WHERE rule_id = $1 AND date_created >= $2 AND date_created <= $3
	`
	args := []interface{}{ruleID, from, to}

	if len(devices) > 0 {
		query += " AND device_id = ANY($4)"
		args = append(args, devices)
	}

	var count int
	if err := s.db.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alarms: %w", err)
	}
	return count, nil
}

// UpdateStatus changes an alarm's triage state.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.AlarmStatus) (*domain.Alarm, error) {
	query := fmt.Sprintf(`
		UPDATE alarms SET status = $2, date_modified = $3
		WHERE id = $1
		RETURNING %s
	`, alarmColumns)

	alarm, err := scanAlarm(s.db.pool.QueryRow(ctx, query, id, status, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("alarm %q not found", id)
		}
		return nil, fmt.Errorf("failed to update alarm status: %w", err)
	}
	return alarm, nil
}

// Delete removes an alarm. Deleting an absent alarm succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.db.pool.Exec(ctx, "DELETE FROM alarms WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete alarm: %w", err)
	}
	return nil
}

// DeleteMany removes up to MaxDeleteBatch alarms by id.
func (s *Service) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) > alarms.MaxDeleteBatch {
		return domain.NewInvalidInput("cannot delete more than %d alarms at once", alarms.MaxDeleteBatch)
	}

	if _, err := s.db.pool.Exec(ctx, "DELETE FROM alarms WHERE id = ANY($1)", ids); err != nil {
		return fmt.Errorf("failed to delete alarms: %w", err)
	}
	return nil
}

// scanAlarm scans a single row into an Alarm.
func scanAlarm(row pgx.Row) (*domain.Alarm, error) {
	var alarm domain.Alarm
	var description, severity *string

	err := row.Scan(
		&alarm.ID,
		&alarm.RuleID,
		&alarm.DeviceID,
		&description,
		&severity,
		&alarm.Status,
		&alarm.DateCreated,
		&alarm.DateModified,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		alarm.Description = *description
	}
	if severity != nil {
		alarm.Severity = *severity
	}
	return &alarm, nil
}

// scanAlarms scans multiple rows into a slice of Alarms.
func scanAlarms(rows pgx.Rows) ([]*domain.Alarm, error) {
	alarms := []*domain.Alarm{}

	for rows.Next() {
		alarm, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		alarms = append(alarms, alarm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alarms: %w", err)
	}
	return alarms, nil
}
