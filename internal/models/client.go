// Package models содержит доменные структуры клиента, его пакета услуг
// и вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// PackageStatus производное состояние пакета клиента.
// Пересчитывается из PackageStart и PackageDuration и не является
// самостоятельным источником истины.
type PackageStatus struct {
	IsActive      bool      `json:"is_active"`
	DaysRemaining int       `json:"days_remaining"`
	ExpiryDate    time.Time `json:"expiry_date"`
}

// Equal сравнивает статусы поле за полем, дата сравнивается как момент времени.
func (s PackageStatus) Equal(other PackageStatus) bool {
	return s.IsActive == other.IsActive &&
		s.DaysRemaining == other.DaysRemaining &&
		s.ExpiryDate.Equal(other.ExpiryDate)
}

// DocumentRecord описывает последний сгенерированный документ клиента.
type DocumentRecord struct {
	Path        string    `json:"path"`
	FileName    string    `json:"file_name"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Client запись подписчика, принадлежащая аккаунту OwnerID.
type Client struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	PackageName     string          `json:"package_name"`
	PackageDuration int             `json:"package_duration"`
	PackageStart    time.Time       `json:"package_start"`           // Опорная дата расчёта срока
	PackageStatus   *PackageStatus  `json:"package_status,omitempty"` // nil, если статус ещё не рассчитан
	Document        *DocumentRecord `json:"document,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// StatusFilter задаёт выборку клиентов по состоянию пакета.
type StatusFilter string

const (
	// StatusAll без фильтрации
	StatusAll StatusFilter = ""
	// StatusActive только активные пакеты
	StatusActive StatusFilter = "active"
	// StatusExpired только истёкшие пакеты
	StatusExpired StatusFilter = "expired"
)

// Match проверяет, подходит ли клиент под фильтр.
func (f StatusFilter) Match(c *Client) bool {
	switch f {
	case StatusActive:
		return c.PackageStatus != nil && c.PackageStatus.IsActive
	case StatusExpired:
		return c.PackageStatus == nil || !c.PackageStatus.IsActive
	default:
		return true
	}
}

// DummyClient используется для приёма данных нового клиента из JSON-запроса.
type DummyClient struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	PackageName     string `json:"package_name" validate:"required"`
	PackageDuration int    `json:"package_duration" validate:"required,gt=0"`
}

// DummyClientUpdate используется для частичного обновления клиента.
// Незаполненные поля (nil) остаются без изменений.
type DummyClientUpdate struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,min=1"`
	PackageName     *string `json:"package_name,omitempty" validate:"omitempty,min=1"`
	PackageDuration *int    `json:"package_duration,omitempty" validate:"omitempty,gt=0"`
}
