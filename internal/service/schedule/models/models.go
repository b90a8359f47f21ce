package models

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Request модели

// WeeklyRuleInput одно правило дня недели в запросе на обновление расписания
type WeeklyRuleInput struct {
	DayOfWeek              int    `json:"dayOfWeek"` // 0 = воскресенье ... 6 = суббота
	OpenTime               string `json:"openTime"`  // "08:00"
	CloseTime              string `json:"closeTime"` // "22:00"
	IsClosed               bool   `json:"isClosed"`
	SessionDurationMinutes int    `json:"sessionDurationMinutes"`
	BufferMinutes          int    `json:"bufferMinutes"`
}

// UpdateScheduleRequest запрос на массовое обновление недельного расписания
// Передаются только изменяемые дни; правила на остальные дни не трогаются
type UpdateScheduleRequest struct {
	UserID     int64             `json:"userId"`
	FacilityID int64             `json:"facilityId"`
	Rules      []WeeklyRuleInput `json:"rules"`
}

// CreateOverrideRequest запрос на создание переопределения на дату
type CreateOverrideRequest struct {
	UserID     int64   `json:"userId"`
	FacilityID int64   `json:"facilityId"`
	Date       string  `json:"date"`               // "2025-10-15"
	OpenTime   *string `json:"openTime,omitempty"` // nil при isClosed=true
	CloseTime  *string `json:"closeTime,omitempty"`
	IsClosed   bool    `json:"isClosed"`
	Reason     *string `json:"reason,omitempty"`
}

// Response модели

// WeeklyRuleResponse правило дня недели
type WeeklyRuleResponse struct {
	DayOfWeek              int    `json:"dayOfWeek"`
	OpenTime               string `json:"openTime,omitempty"`
	CloseTime              string `json:"closeTime,omitempty"`
	IsClosed               bool   `json:"isClosed"`
	SessionDurationMinutes int    `json:"sessionDurationMinutes"`
	BufferMinutes          int    `json:"bufferMinutes"`
}

// OverrideResponse переопределение на дату
type OverrideResponse struct {
	Date      string  `json:"date"`
	OpenTime  *string `json:"openTime,omitempty"`
	CloseTime *string `json:"closeTime,omitempty"`
	IsClosed  bool    `json:"isClosed"`
	Reason    *string `json:"reason,omitempty"`
}

// ScheduleResponse недельное расписание площадки с предстоящими переопределениями
type ScheduleResponse struct {
	FacilityID int64                `json:"facilityId"`
	Rules      []WeeklyRuleResponse `json:"rules"`
	Overrides  []OverrideResponse   `json:"overrides"`
}

// Методы конвертации

// FromDomainWeeklyRule конвертирует domain модель в DTO
func FromDomainWeeklyRule(rule *domain.WeeklyRule) WeeklyRuleResponse {
	resp := WeeklyRuleResponse{
		DayOfWeek:              rule.DayOfWeek,
		IsClosed:               rule.IsClosed,
		SessionDurationMinutes: rule.SessionDurationMinutes,
		BufferMinutes:          rule.BufferMinutes,
	}

	if !rule.IsClosed {
		resp.OpenTime = rule.OpenTime.String()
		resp.CloseTime = rule.CloseTime.String()
	}

	return resp
}

// FromDomainOverride конвертирует domain модель в DTO
func FromDomainOverride(override *domain.DateOverride) OverrideResponse {
	resp := OverrideResponse{
		Date:     override.Date.Format(domain.DateFormat),
		IsClosed: override.IsClosed,
		Reason:   override.Reason,
	}

	if override.OpenTime != nil {
		open := override.OpenTime.String()
		resp.OpenTime = &open
	}
	if override.CloseTime != nil {
		closeT := override.CloseTime.String()
		resp.CloseTime = &closeT
	}

	return resp
}

// FromDomainSchedule собирает ответ из правил и переопределений
func FromDomainSchedule(facilityID int64, rules []*domain.WeeklyRule, overrides []*domain.DateOverride) *ScheduleResponse {
	resp := &ScheduleResponse{
		FacilityID: facilityID,
		Rules:      make([]WeeklyRuleResponse, 0, len(rules)),
		Overrides:  make([]OverrideResponse, 0, len(overrides)),
	}

	for _, rule := range rules {
		resp.Rules = append(resp.Rules, FromDomainWeeklyRule(rule))
	}
	for _, override := range overrides {
		resp.Overrides = append(resp.Overrides, FromDomainOverride(override))
	}

	return resp
}

// ToDomainRule конвертирует входное правило в domain модель
func (r *WeeklyRuleInput) ToDomainRule(facilityID int64) *domain.WeeklyRule {
	return &domain.WeeklyRule{
		FacilityID:             facilityID,
		DayOfWeek:              r.DayOfWeek,
		OpenTime:               types.TimeString(r.OpenTime),
		CloseTime:              types.TimeString(r.CloseTime),
		IsClosed:               r.IsClosed,
		SessionDurationMinutes: r.SessionDurationMinutes,
		BufferMinutes:          r.BufferMinutes,
	}
}

// ToDomainOverride конвертирует запрос в domain модель
func (r *CreateOverrideRequest) ToDomainOverride() (*domain.DateOverride, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, err
	}

	override := &domain.DateOverride{
		FacilityID: r.FacilityID,
		Date:       date,
		IsClosed:   r.IsClosed,
		Reason:     r.Reason,
	}

	if r.OpenTime != nil {
		open := types.TimeString(*r.OpenTime)
		override.OpenTime = &open
	}
	if r.CloseTime != nil {
		closeT := types.TimeString(*r.CloseTime)
		override.CloseTime = &closeT
	}

	return override, nil
}
