// Package subscription реализует журнал подписок на категории: вычисление
// состояния жизненного цикла на момент времени, оформление, продление и отмену.
package subscription

import "fmt"

// State — состояние жизненного цикла подписки на категорию.
type State int

const (
	// StateNone — подписка на категорию никогда не оформлялась. Доступа нет.
	StateNone State = iota
	// StateActive — оплаченный период не истёк.
	StateActive
	// StateGracePeriod — оплаченный период истёк, но льготный ещё идёт.
	StateGracePeriod
	// StateExpired — истёк и льготный период.
	StateExpired
	// StateCancelled — подписка отменена, состояние конечное.
	StateCancelled
)

// States перечисляет все состояния в порядке объявления.
func States() []State {
	return []State{StateNone, StateActive, StateGracePeriod, StateExpired, StateCancelled}
}

// HasAccess сообщает, открывает ли состояние доступ к категории.
func (s State) HasAccess() bool {
	switch s {
	case StateActive, StateGracePeriod:
		return true
	case StateNone, StateExpired, StateCancelled:
		return false
	}
	panic(fmt.Sprintf("subscription: unhandled state %d", int(s)))
}

// String возвращает машинное имя состояния.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateActive:
		return "active"
	case StateGracePeriod:
		return "grace_period"
	case StateExpired:
		return "expired"
	case StateCancelled:
		return "cancelled"
	}
	panic(fmt.Sprintf("subscription: unhandled state %d", int(s)))
}

// Label — подпись для интерфейса.
func (s State) Label() string {
	switch s {
	case StateNone:
		return "Not subscribed"
	case StateActive:
		return "Active"
	case StateGracePeriod:
		return "Renewal due"
	case StateExpired:
		return "Expired"
	case StateCancelled:
		return "Cancelled"
	}
	panic(fmt.Sprintf("subscription: unhandled state %d", int(s)))
}

// Tone — цветовой тон бейджа для интерфейса.
func (s State) Tone() string {
	switch s {
	case StateNone:
		return "neutral"
	case StateActive:
		return "success"
	case StateGracePeriod:
		return "warning"
	case StateExpired, StateCancelled:
		return "danger"
	}
	panic(fmt.Sprintf("subscription: unhandled state %d", int(s)))
}

// MarshalText сериализует состояние машинным именем.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
