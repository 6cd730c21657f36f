package models

import "time"

// PriceAlert represents a local price alert armed during a watch
// session. The condition is evaluated against live stream quotes.
type PriceAlert struct {
	Symbol      string
	Condition   AlertCondition
	Price       float64
	Triggered   bool
	CreatedAt   time.Time
	TriggeredAt *time.Time
}

// AlertCondition represents the trigger direction of a price alert.
type AlertCondition string

const (
	AlertAbove AlertCondition = "above"
	AlertBelow AlertCondition = "below"
)

// Check reports whether the given price satisfies the alert condition.
func (a *PriceAlert) Check(price float64) bool {
	switch a.Condition {
	case AlertAbove:
		return price >= a.Price
	case AlertBelow:
		return price <= a.Price
	}
	return false
}
