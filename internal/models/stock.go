package models

// MovementReason explains why a product's stock changed.
type MovementReason string

const (
	MovementSale       MovementReason = "sale"
	MovementVoid       MovementReason = "void"
	MovementPurchase   MovementReason = "purchase"
	MovementAdjustment MovementReason = "adjustment"
	MovementReturn     MovementReason = "return"
	MovementDamage     MovementReason = "damage"
)

// Manual reports whether the reason may be used for a hand-entered adjustment.
// Sale and void movements are only written by checkout and voiding.
func (r MovementReason) Manual() bool {
	switch r {
	case MovementPurchase, MovementAdjustment, MovementReturn, MovementDamage:
		return true
	}
	return false
}

// StockMovement is an append-only ledger entry for a stock change.
type StockMovement struct {
	// ID is a ULID so movements sort by creation time.
	ID string

	BusinessID string
	ProductID  string

	// Delta is positive for stock coming in and negative for stock going out.
	Delta int

	Reason MovementReason

	// Reference links the movement to its source, such as a sale ID.
	Reference string

	// StockAfter is the product's stock once the delta was applied.
	StockAfter int

	Note string

	// CreatedBy is the user ID who caused the movement.
	CreatedBy string

	CreatedAt int64
}

// StockLevel is a product's stock after a change, used for low-stock alerts.
type StockLevel struct {
	ProductID string
	SKU       string
	Name      string
	Stock     int
	MinStock  int
}

// Low reports whether the level is at or below its threshold.
func (l StockLevel) Low() bool {
	return l.MinStock > 0 && l.Stock <= l.MinStock
}

// CrossedLow reports whether applying delta moved the product from above its
// threshold to at or below it.
func (l StockLevel) CrossedLow(delta int) bool {
	return l.Low() && l.Stock-delta > l.MinStock
}
