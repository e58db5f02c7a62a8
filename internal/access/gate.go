// Package access разбивает категории на оплаченные и заблокированные по
// подпискам пользователя. Разбиение зависит от времени, поэтому строится
// заново на каждый запрос.
package access

import (
	"time"

	"github.com/magabrotheeeer/servicehub/internal/models"
	"github.com/magabrotheeeer/servicehub/internal/subscription"
)

// Gate — разбиение категорий пользователя на момент времени.
type Gate struct {
	states map[models.Category]subscription.State
	subs   map[models.Category]*models.CategorySubscription
	paid   []models.Category
	unpaid []models.Category
}

// New строит Gate по всем подпискам пользователя на момент now.
// Категории без подписки попадают в неоплаченные.
func New(subs []models.CategorySubscription, now time.Time) *Gate {
	g := &Gate{
		states: make(map[models.Category]subscription.State, len(models.Categories())),
		subs:   make(map[models.Category]*models.CategorySubscription, len(subs)),
	}
	for i := range subs {
		if !subs[i].Category.Valid() {
			continue
		}
		g.subs[subs[i].Category] = &subs[i]
	}
	for _, c := range models.Categories() {
		st := subscription.StateAt(g.subs[c], now)
		g.states[c] = st
		if st.HasAccess() {
			g.paid = append(g.paid, c)
		} else {
			g.unpaid = append(g.unpaid, c)
		}
	}
	return g
}

// PaidCategories — категории в состоянии active или grace_period.
func (g *Gate) PaidCategories() []models.Category {
	return append([]models.Category(nil), g.paid...)
}

// UnpaidCategories — категории в состоянии expired, cancelled или без подписки.
func (g *Gate) UnpaidCategories() []models.Category {
	return append([]models.Category(nil), g.unpaid...)
}

// HasAccess сообщает, оплачена ли категория.
func (g *Gate) HasAccess(c models.Category) bool {
	return g.states[c].HasAccess()
}

// State возвращает состояние подписки на категорию.
func (g *Gate) State(c models.Category) subscription.State {
	return g.states[c]
}

// Subscription возвращает подписку на категорию или nil.
func (g *Gate) Subscription(c models.Category) *models.CategorySubscription {
	return g.subs[c]
}

// ActiveCategory возвращает запрошенную категорию, если доступ к ней есть.
// Иначе ok == false, и вызывающий должен показать обзорную панель.
func (g *Gate) ActiveCategory(requested models.Category) (models.Category, bool) {
	if !g.HasAccess(requested) {
		return "", false
	}
	return requested, true
}
