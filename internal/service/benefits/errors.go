package benefits

import "errors"

var (
	// ErrPackageInvalid явно указанный пакет не прошел проверку
	ErrPackageInvalid = errors.New("benefits: package invalid")

	// ErrSubscriptionInvalid явно указанная подписка не прошла проверку
	ErrSubscriptionInvalid = errors.New("benefits: subscription invalid")

	// ErrAmbiguousBenefit указаны одновременно пакет и подписка
	ErrAmbiguousBenefit = errors.New("benefits: both package and subscription specified")

	// ErrInternal внутренняя ошибка
	ErrInternal = errors.New("benefits: internal error")
)
