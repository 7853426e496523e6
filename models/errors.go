package models

import "fmt"

// Типизированные ошибки доменного ядра. Обработчики HTTP переводят их
// в коды ответов, поэтому каждая категория — отдельный тип.

// ValidationError — некорректные входные данные (плохой диапазон дат,
// неположительные порции, слишком короткая причина отклонения).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// PermissionError — роль не имеет права на запрошенное действие.
type PermissionError struct {
	Role   ActorRole
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("роль %s не имеет права выполнять действие %q", e.Role, e.Action)
}

// StateConflictError — попытка перехода из чужого статуса или занятый слот.
// Признак гонки либо устаревшего состояния на клиенте.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string { return e.Reason }

// RangeError — дата назначения вне диапазона плана.
type RangeError struct {
	Reason string
}

func (e *RangeError) Error() string { return e.Reason }

// NotFoundError — план, назначение или меню не найдены по идентификатору.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s с id=%d не найден", e.Entity, e.ID)
}
