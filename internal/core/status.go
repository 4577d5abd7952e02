package core

// LimitStatus classifies a month's spending against its limit.
type LimitStatus string

const (
	StatusBelowLimit LimitStatus = "below_limit"
	StatusAboveLimit LimitStatus = "above_limit"
	StatusNoLimit    LimitStatus = "no_limit"
)

func (s LimitStatus) IsValid() bool {
	switch s {
	case StatusBelowLimit, StatusAboveLimit, StatusNoLimit:
		return true
	}
	return false
}

// DeriveStatus applies the classification rule: a non-positive limit means
// no limit, and spending exactly the limit still counts as below it.
func DeriveStatus(total, limit Money) LimitStatus {
	if limit.Cents <= 0 {
		return StatusNoLimit
	}
	if total.Cents <= limit.Cents {
		return StatusBelowLimit
	}
	return StatusAboveLimit
}
