package application

import (
	"sort"

	"github.com/mantenix/inventory-service/internal/domain"
)

// SelectSource picks the stock row to transfer qty units from.
//
// With an explicit source the row must cover qty on its own; there is no
// fallback to other locations. Without one, the location with the largest
// availability among those covering qty wins. The destination is never a
// candidate.
func SelectSource(stocks []*domain.InventoryStock, explicit, destination domain.Location, itemID string, qty int64) (*domain.InventoryStock, error) {
	ranked := make([]*domain.InventoryStock, 0, len(stocks))
	for _, s := range stocks {
		if !s.Location().SameAs(destination) {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].AvailableQuantity != ranked[j].AvailableQuantity {
			return ranked[i].AvailableQuantity > ranked[j].AvailableQuantity
		}
		return ranked[i].LocationID < ranked[j].LocationID
	})
	breakdown := withStock(ranked)

	if !explicit.IsZero() {
		for _, s := range stocks {
			if !s.Location().SameAs(explicit) {
				continue
			}
			if s.AvailableQuantity >= qty {
				return s, nil
			}
			return nil, &domain.StockError{
				Kind:      domain.ErrInsufficientStockAtChosenLocation,
				ItemID:    itemID,
				Location:  explicit,
				Requested: qty,
				Available: s.AvailableQuantity,
				Breakdown: breakdown,
			}
		}
		return nil, &domain.StockError{
			Kind:      domain.ErrInsufficientStockAtChosenLocation,
			ItemID:    itemID,
			Location:  explicit,
			Requested: qty,
			Breakdown: breakdown,
		}
	}

	if len(ranked) > 0 && ranked[0].AvailableQuantity >= qty {
		return ranked[0], nil
	}

	var total int64
	for _, line := range breakdown {
		total += line.Available
	}
	return nil, &domain.StockError{
		Kind:      domain.ErrInsufficientStock,
		ItemID:    itemID,
		Requested: qty,
		Available: total,
		Breakdown: breakdown,
	}
}

func withStock(stocks []*domain.InventoryStock) []domain.LocationAvailability {
	lines := make([]domain.LocationAvailability, 0, len(stocks))
	for _, s := range stocks {
		if s.AvailableQuantity > 0 {
			lines = append(lines, s.Availability())
		}
	}
	return lines
}
