package get_facility_bookings

import (
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/bookings/models"
)

// parseQuery собирает фильтр бронирований площадки из query-параметров
func parseQuery(query url.Values, facilityID, userID int64) (*models.GetFacilityBookingsRequest, error) {
	req := &models.GetFacilityBookingsRequest{
		UserID:     userID,
		FacilityID: facilityID,
	}

	if raw := query.Get("courtId"); raw != "" {
		courtID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		req.CourtID = &courtID
	}

	if raw := query.Get("startDate"); raw != "" {
		startDate, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			return nil, err
		}
		req.StartDate = &startDate
	}

	if raw := query.Get("endDate"); raw != "" {
		endDate, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			return nil, err
		}
		req.EndDate = &endDate
	}

	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	if raw := query.Get("includeInactive"); raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		req.IncludeInactive = includeInactive
	}

	return req, nil
}
