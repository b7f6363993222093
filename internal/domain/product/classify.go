package product

import (
	"sort"
)

// StockStatus describes a product's availability relative to its threshold.
type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	LowStock   StockStatus = "low_stock"
	OutOfStock StockStatus = "out_of_stock"
)

// Urgency is the derived restocking severity for a product.
type Urgency string

const (
	UrgencyNone     Urgency = "none"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// rank orders urgencies for display: most severe first.
func (u Urgency) rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 2
	default:
		return 3
	}
}

// Classification pairs the derived status and urgency of a product.
type Classification struct {
	Status  StockStatus
	Urgency Urgency
}

// Classify derives the stock status and urgency tier from a stock level and
// a low-stock threshold. Stock at or below half the threshold (integer half)
// is high urgency, at or below the threshold is medium.
func Classify(stock, threshold int) Classification {
	switch {
	case stock == 0:
		return Classification{Status: OutOfStock, Urgency: UrgencyCritical}
	case stock <= threshold/2:
		return Classification{Status: LowStock, Urgency: UrgencyHigh}
	case stock <= threshold:
		return Classification{Status: LowStock, Urgency: UrgencyMedium}
	default:
		return Classification{Status: InStock, Urgency: UrgencyNone}
	}
}

// NeedsAttention reports whether the product should appear on the low-stock
// dashboard list.
func (c Classification) NeedsAttention() bool {
	return c.Status == LowStock || c.Status == OutOfStock
}

// SortByUrgency orders products for restocking display: most urgent first,
// ties broken by ascending stock, then by name for determinism.
func SortByUrgency(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a := Classify(products[i].Stock, products[i].LowStockThreshold)
		b := Classify(products[j].Stock, products[j].LowStockThreshold)
		if a.Urgency.rank() != b.Urgency.rank() {
			return a.Urgency.rank() < b.Urgency.rank()
		}
		if products[i].Stock != products[j].Stock {
			return products[i].Stock < products[j].Stock
		}
		return products[i].Name < products[j].Name
	})
}
