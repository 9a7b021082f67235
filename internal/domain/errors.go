package domain

import "errors"

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrForbidden — у пользователя нет прав на команду.
	ErrForbidden = errors.New("forbidden")
	// ErrStorage — ошибка хранилища.
	ErrStorage = errors.New("storage failure")
	// ErrDelivery — ошибка доставки через платформу.
	ErrDelivery = errors.New("delivery failure")
)
