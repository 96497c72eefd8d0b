package services

import "errors"

// Общие ошибки, используемые в разных сервисах.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrTeamNotInGame       = errors.New("team is not a participant of the game")
	ErrGameAlreadyResolved = errors.New("game has already been resolved")
	ErrGameNotCreatedYet   = errors.New("game has no external id yet")
	ErrUnknownRatingSystem = errors.New("league has an unknown rating system configured")

	// Ошибки, специфичные для сущностей
	ErrTeamNotFound     = errors.New("team not found")
	ErrGameNotFound     = errors.New("game not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrLeagueNotFound   = errors.New("league not found")
)
