package courtservice

// Court модель корта из CourtService
type Court struct {
	ID           int64  `json:"id"`
	FacilityID   int64  `json:"facility_id"`
	Name         string `json:"name"`
	Sport        string `json:"sport"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

// Facility модель спортивной площадки из CourtService
type Facility struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Timezone   string  `json:"timezone"`
	ManagerIDs []int64 `json:"manager_ids"`
	Courts     []Court `json:"courts"`
}

// CourtByID возвращает корт площадки по ID
func (f *Facility) CourtByID(courtID int64) (*Court, bool) {
	for i := range f.Courts {
		if f.Courts[i].ID == courtID {
			return &f.Courts[i], true
		}
	}
	return nil, false
}

// HasManager проверяет, является ли пользователь менеджером площадки
func (f *Facility) HasManager(userID int64) bool {
	for _, id := range f.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ErrorResponse модель ошибки от CourtService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
