package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

const pqUniqueViolation = "23505"

// Repository репозиторий для работы с расписанием площадок
// Хранит недельные правила и переопределения на конкретные даты
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetWeeklyRule получает правило площадки для дня недели (0 = воскресенье ... 6 = суббота)
func (r *Repository) GetWeeklyRule(ctx context.Context, facilityID int64, dayOfWeek int) (*domain.WeeklyRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"facility_id",
		"day_of_week",
		"open_time",
		"close_time",
		"is_closed",
		"session_duration_minutes",
		"buffer_minutes",
		"created_at",
		"updated_at",
	).
		From("weekly_rules").
		Where(squirrel.Eq{"facility_id": facilityID, "day_of_week": dayOfWeek}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyRule - build select query: %v", ErrBuildQuery, err)
	}

	rule, err := r.scanWeeklyRule(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrWeeklyRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyRule - scan rule: %v", ErrScanRow, err)
	}

	return rule, nil
}

// GetWeeklyRules получает все недельные правила площадки, упорядоченные по дню недели
func (r *Repository) GetWeeklyRules(ctx context.Context, facilityID int64) ([]*domain.WeeklyRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"facility_id",
		"day_of_week",
		"open_time",
		"close_time",
		"is_closed",
		"session_duration_minutes",
		"buffer_minutes",
		"created_at",
		"updated_at",
	).
		From("weekly_rules").
		Where(squirrel.Eq{"facility_id": facilityID}).
		OrderBy("day_of_week ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyRules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyRules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	rules := make([]*domain.WeeklyRule, 0, 7)
	for rows.Next() {
		rule, err := r.scanWeeklyRule(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetWeeklyRules - scan rule: %v", ErrScanRow, err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetWeeklyRules - rows error: %v", ErrScanRow, err)
	}

	return rules, nil
}

// UpsertWeeklyRule создает или перезаписывает правило для дня недели
// Правила никогда не удаляются - только перезаписываются bulk-обновлением владельца
func (r *Repository) UpsertWeeklyRule(ctx context.Context, rule *domain.WeeklyRule) (*domain.WeeklyRule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("weekly_rules").
		Columns(
			"facility_id",
			"day_of_week",
			"open_time",
			"close_time",
			"is_closed",
			"session_duration_minutes",
			"buffer_minutes",
		).
		Values(
			rule.FacilityID,
			rule.DayOfWeek,
			rule.OpenTime,
			rule.CloseTime,
			rule.IsClosed,
			rule.SessionDurationMinutes,
			rule.BufferMinutes,
		).
		Suffix(`ON CONFLICT (facility_id, day_of_week) DO UPDATE SET
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			is_closed = EXCLUDED.is_closed,
			session_duration_minutes = EXCLUDED.session_duration_minutes,
			buffer_minutes = EXCLUDED.buffer_minutes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: UpsertWeeklyRule - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&rule.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: UpsertWeeklyRule - execute insert: %v", ErrExecQuery, err)
	}

	rule.CreatedAt = createdAt.Time
	rule.UpdatedAt = updatedAt.Time

	return rule, nil
}

// GetOverride получает переопределение расписания на конкретную дату
func (r *Repository) GetOverride(ctx context.Context, facilityID int64, date time.Time) (*domain.DateOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"facility_id",
		"date",
		"open_time",
		"close_time",
		"is_closed",
		"reason",
		"created_at",
		"updated_at",
	).
		From("date_overrides").
		Where(squirrel.Eq{"facility_id": facilityID, "date": date}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetOverride - build select query: %v", ErrBuildQuery, err)
	}

	override, err := r.scanOverride(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrOverrideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverride - scan override: %v", ErrScanRow, err)
	}

	return override, nil
}

// ListOverrides получает переопределения площадки начиная с указанной даты
func (r *Repository) ListOverrides(ctx context.Context, facilityID int64, from time.Time) ([]*domain.DateOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"facility_id",
		"date",
		"open_time",
		"close_time",
		"is_closed",
		"reason",
		"created_at",
		"updated_at",
	).
		From("date_overrides").
		Where(squirrel.Eq{"facility_id": facilityID}).
		Where(squirrel.GtOrEq{"date": from}).
		OrderBy("date ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	overrides := make([]*domain.DateOverride, 0)
	for rows.Next() {
		override, err := r.scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListOverrides - scan override: %v", ErrScanRow, err)
		}
		overrides = append(overrides, override)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - rows error: %v", ErrScanRow, err)
	}

	return overrides, nil
}

// CreateOverride создает переопределение на дату
func (r *Repository) CreateOverride(ctx context.Context, override *domain.DateOverride) (*domain.DateOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("date_overrides").
		Columns(
			"facility_id",
			"date",
			"open_time",
			"close_time",
			"is_closed",
			"reason",
		).
		Values(
			override.FacilityID,
			override.Date,
			override.OpenTime,
			override.CloseTime,
			override.IsClosed,
			override.Reason,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: CreateOverride - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&override.ID, &createdAt, &updatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return nil, ErrDuplicateOverride
		}
		return nil, fmt.Errorf("%w: CreateOverride - execute insert: %v", ErrExecQuery, err)
	}

	override.CreatedAt = createdAt.Time
	override.UpdatedAt = updatedAt.Time

	return override, nil
}

// DeleteOverride удаляет переопределение на дату
func (r *Repository) DeleteOverride(ctx context.Context, facilityID int64, date time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("date_overrides").
		Where(squirrel.Eq{"facility_id": facilityID, "date": date}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: DeleteOverride - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeleteOverride - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeleteOverride - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrOverrideNotFound
	}

	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanWeeklyRule(row rowScanner) (*domain.WeeklyRule, error) {
	var rule domain.WeeklyRule
	var openTime, closeTime sql.NullString
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&rule.ID,
		&rule.FacilityID,
		&rule.DayOfWeek,
		&openTime,
		&closeTime,
		&rule.IsClosed,
		&rule.SessionDurationMinutes,
		&rule.BufferMinutes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if openTime.Valid {
		if err := rule.OpenTime.Scan(openTime.String); err != nil {
			return nil, err
		}
	}
	if closeTime.Valid {
		if err := rule.CloseTime.Scan(closeTime.String); err != nil {
			return nil, err
		}
	}

	rule.CreatedAt = createdAt.Time
	rule.UpdatedAt = updatedAt.Time

	return &rule, nil
}

func (r *Repository) scanOverride(row rowScanner) (*domain.DateOverride, error) {
	var override domain.DateOverride
	var openTime, closeTime sql.NullString
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&override.ID,
		&override.FacilityID,
		&override.Date,
		&openTime,
		&closeTime,
		&override.IsClosed,
		&override.Reason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if openTime.Valid {
		var ts types.TimeString
		if err := ts.Scan(openTime.String); err != nil {
			return nil, err
		}
		override.OpenTime = &ts
	}
	if closeTime.Valid {
		var ts types.TimeString
		if err := ts.Scan(closeTime.String); err != nil {
			return nil, err
		}
		override.CloseTime = &ts
	}

	override.CreatedAt = createdAt.Time
	override.UpdatedAt = updatedAt.Time

	return &override, nil
}
