package schedule

import "errors"

var (
	// ErrWeeklyRuleNotFound возвращается, когда правило для дня недели не найдено
	ErrWeeklyRuleNotFound = errors.New("schedule.repository: weekly rule not found")

	// ErrOverrideNotFound возвращается, когда переопределение на дату не найдено
	ErrOverrideNotFound = errors.New("schedule.repository: date override not found")

	// ErrDuplicateOverride возвращается при попытке создать второе переопределение на ту же дату
	ErrDuplicateOverride = errors.New("schedule.repository: override already exists for this date")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("schedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("schedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("schedule.repository: failed to scan row")
)
