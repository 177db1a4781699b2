package service

import "fmt"

// formatPrice picks the decimal precision by magnitude: sub-unit prices
// keep 8 decimals, mid-range 4, large 2.
func formatPrice(price float64) string {
	switch {
	case price < 1:
		return fmt.Sprintf("%.8f", price)
	case price < 1000:
		return fmt.Sprintf("%.4f", price)
	default:
		return fmt.Sprintf("%.2f", price)
	}
}
