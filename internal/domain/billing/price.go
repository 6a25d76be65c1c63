// Package billing holds the traffic pricing model, wallets, and the
// ledger windows that accumulate usage between debits.
package billing

// TrafficUnit is the unit a price is quoted in.
type TrafficUnit string

const (
	UnitKB TrafficUnit = "KB"
	UnitMB TrafficUnit = "MB"
	UnitGB TrafficUnit = "GB"
)

// Bytes returns the number of bytes in one unit.
func (u TrafficUnit) Bytes() int64 {
	switch u {
	case UnitKB:
		return 1024
	case UnitMB:
		return 1024 * 1024
	case UnitGB:
		return 1024 * 1024 * 1024
	default:
		return 1024 * 1024 * 1024
	}
}

func (u TrafficUnit) IsValid() bool {
	switch u {
	case UnitKB, UnitMB, UnitGB:
		return true
	}
	return false
}

// Price is a per-unit traffic price.
type Price struct {
	Amount float64
	Unit   TrafficUnit
}

// Convert expresses raw bytes in the price's unit.
func (p Price) Convert(bytes int64) float64 {
	return float64(bytes) / float64(p.Unit.Bytes())
}

// Cost returns the converted traffic and the resulting charge.
func (p Price) Cost(bytes int64) (traffic float64, amount float64) {
	traffic = p.Convert(bytes)
	return traffic, traffic * p.Amount
}
