package domain

import (
	"github.com/google/uuid"
)

// Identity — проверенная личность вызывающего, извлеченная из access-токена.
// Выпуском токенов занимается внешний auth-сервис.
type Identity struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
}
