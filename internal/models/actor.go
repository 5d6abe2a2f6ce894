package models

import "github.com/google/uuid"

// Actor описывает инициатора операции: пользователь либо сама система.
// Используется вместо нулевого идентификатора-заглушки, чтобы системные
// переходы (авторелиз) нельзя было спутать с действиями пользователя.
type Actor struct {
	userID uuid.UUID
	system bool
}

// UserActor создаёт актора-пользователя.
func UserActor(id uuid.UUID) Actor {
	return Actor{userID: id}
}

// SystemActor создаёт системного актора.
func SystemActor() Actor {
	return Actor{system: true}
}

// IsSystem сообщает, что операция инициирована системой.
func (a Actor) IsSystem() bool {
	return a.system
}

// UserID возвращает идентификатор пользователя и признак, что актор не системный.
func (a Actor) UserID() (uuid.UUID, bool) {
	if a.system {
		return uuid.Nil, false
	}
	return a.userID, true
}

// Is проверяет, что актор — конкретный пользователь.
func (a Actor) Is(id uuid.UUID) bool {
	return !a.system && a.userID == id
}
