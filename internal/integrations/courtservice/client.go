package courtservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с CourtService
// Отдает справочные данные: площадки, корты и их порядок отображения
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента CourtService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetFacility получает площадку вместе со списком кортов
func (c *Client) GetFacility(ctx context.Context, facilityID int64) (*Facility, error) {
	url := fmt.Sprintf("%s/internal/facilities/%d", c.baseURL, facilityID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: invalid facility ID format", ErrInvalidResponse)
	case http.StatusNotFound:
		return nil, ErrFacilityNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var facility Facility
	if err := json.NewDecoder(resp.Body).Decode(&facility); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &facility, nil
}

// GetActiveCourts получает площадку и возвращает только активные корты
// в порядке отображения. Порядок стабилен: при равном display_order
// сортировка идет по ID корта.
func (c *Client) GetActiveCourts(ctx context.Context, facilityID int64) (*Facility, []Court, error) {
	facility, err := c.GetFacility(ctx, facilityID)
	if err != nil {
		return nil, nil, err
	}

	courts := make([]Court, 0, len(facility.Courts))
	for _, court := range facility.Courts {
		if court.IsActive {
			courts = append(courts, court)
		}
	}

	sort.Slice(courts, func(i, j int) bool {
		if courts[i].DisplayOrder != courts[j].DisplayOrder {
			return courts[i].DisplayOrder < courts[j].DisplayOrder
		}
		return courts[i].ID < courts[j].ID
	})

	return facility, courts, nil
}
