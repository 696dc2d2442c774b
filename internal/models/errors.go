package models

import "errors"

var (
	// ErrNotFound клиент, аккаунт или документ не найден.
	ErrNotFound = errors.New("not found")
	// ErrForbidden клиент принадлежит другому аккаунту.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateEmail у владельца уже есть клиент с таким email.
	ErrDuplicateEmail = errors.New("client with this email already exists")
	// ErrInvalidPackage пустое имя пакета или неположительная длительность.
	ErrInvalidPackage = errors.New("invalid package")
	// ErrUserExists аккаунт с таким email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
