package lockstore

import "errors"

var (
	// ErrAlreadyLocked возвращается, когда ключ занят неистёкшей блокировкой другого держателя
	ErrAlreadyLocked = errors.New("lockstore: slot is already locked by another holder")

	// ErrLockNotFound возвращается, когда блокировка по ключу отсутствует или истекла
	ErrLockNotFound = errors.New("lockstore: lock not found")

	// ErrLockNotHeld возвращается при попытке продлить блокировку, которой нет или которая принадлежит другому держателю
	ErrLockNotHeld = errors.New("lockstore: lock is not held by this holder")

	// ErrStoreUnavailable возвращается, когда хранилище блокировок недоступно
	ErrStoreUnavailable = errors.New("lockstore: lock store unavailable")
)
