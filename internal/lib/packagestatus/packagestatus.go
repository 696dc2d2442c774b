// Package packagestatus рассчитывает состояние пакета клиента по опорной дате
// и длительности в днях. Функции чистые: текущее время передаётся аргументом.
//
// Срок действия считается по исключающему правилу:
// expiry = полночь(reference, UTC) + duration дней, без дополнительного дня.
package packagestatus

import (
	"time"

	"github.com/magabrotheeeer/package-tracker/internal/models"
)

const day = 24 * time.Hour

// Midnight приводит момент времени к полуночи того же дня в UTC.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpiryDate возвращает дату окончания пакета.
func ExpiryDate(reference time.Time, durationDays int) time.Time {
	return Midnight(reference).AddDate(0, 0, durationDays)
}

// Compute рассчитывает статус пакета на момент now.
// Пакет активен, пока now строго раньше даты окончания;
// DaysRemaining округлённое вверх число оставшихся суток, для истёкшего пакета 0.
func Compute(reference time.Time, durationDays int, now time.Time) models.PackageStatus {
	expiry := ExpiryDate(reference, durationDays)

	if !now.Before(expiry) {
		return models.PackageStatus{
			IsActive:      false,
			DaysRemaining: 0,
			ExpiryDate:    expiry,
		}
	}

	left := expiry.Sub(now)
	days := int(left / day)
	if left%day != 0 {
		days++
	}

	return models.PackageStatus{
		IsActive:      true,
		DaysRemaining: days,
		ExpiryDate:    expiry,
	}
}
