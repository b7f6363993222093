package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		threshold int
		status    StockStatus
		urgency   Urgency
	}{
		{"zero stock is critical", 0, 5, OutOfStock, UrgencyCritical},
		{"at half threshold is high", 2, 5, LowStock, UrgencyHigh},
		{"between half and threshold is medium", 4, 5, LowStock, UrgencyMedium},
		{"above threshold is fine", 6, 5, InStock, UrgencyNone},
		{"exactly at threshold is medium", 5, 5, LowStock, UrgencyMedium},
		{"zero threshold still flags empty stock", 0, 0, OutOfStock, UrgencyCritical},
		{"zero threshold with stock is fine", 1, 0, InStock, UrgencyNone},
		{"half is floored", 3, 7, LowStock, UrgencyHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.stock, tt.threshold)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.urgency, got.Urgency)
		})
	}
}

func TestClassificationNeedsAttention(t *testing.T) {
	assert.True(t, Classify(0, 5).NeedsAttention())
	assert.True(t, Classify(3, 5).NeedsAttention())
	assert.False(t, Classify(6, 5).NeedsAttention())
}

func TestSortByUrgency(t *testing.T) {
	products := []Product{
		{ID: "p1", Name: "Bolts", Stock: 4, LowStockThreshold: 5},    // medium
		{ID: "p2", Name: "Nuts", Stock: 0, LowStockThreshold: 5},     // critical
		{ID: "p3", Name: "Washers", Stock: 2, LowStockThreshold: 5},  // high
		{ID: "p4", Name: "Anchors", Stock: 2, LowStockThreshold: 10}, // high, same stock
	}

	SortByUrgency(products)

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	// critical first, then the two high products tied on stock resolve by
	// name (Anchors before Washers), medium last.
	assert.Equal(t, []string{"p2", "p4", "p3", "p1"}, ids)
}
