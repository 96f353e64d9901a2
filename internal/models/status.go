package models

import "fmt"

// Status — закрытый набор состояний соглашения.
// Порядок значим: переходы допускаются только вперёд.
type Status string

const (
	StatusCreated Status = "created"
	StatusSent    Status = "sent"
	StatusViewed  Status = "viewed"
	StatusSigned  Status = "signed"
)

var statusOrder = map[Status]int{
	StatusCreated: 0,
	StatusSent:    1,
	StatusViewed:  2,
	StatusSigned:  3,
}

// ParseStatus валидирует произвольную строку против закрытого набора.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusOrder[st]; !ok {
		return "", fmt.Errorf("unknown agreement status: %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransition — разрешён ли переход s → to.
// Только вперёд по жизненному циклу; signed — терминальное состояние
// (расписаться «обратно» нельзя).
func (s Status) CanTransition(to Status) bool {
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	next, ok := statusOrder[to]
	if !ok {
		return false
	}
	return next > from
}
