// Package models содержит доменную модель аккаунта (владельца клиентов).
package models

import "time"

// User представляет зарегистрированный аккаунт, владеющий клиентами.
type User struct {
	UUID         string    // Уникальный идентификатор аккаунта
	Name         string    // Отображаемое имя
	Email        string    // Электронная почта (уникальная)
	Phone        string    // Телефон
	PasswordHash string    // Хэш пароля
	Role         string    // Роль, admin или user
	CreatedAt    time.Time // Дата регистрации
}

// DummyUser используется для приёма данных регистрации из JSON-запроса.
type DummyUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty"`
	Password string `json:"password" validate:"required,min=6"`
}

// DummyLogin используется для приёма данных входа.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
