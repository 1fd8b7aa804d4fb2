package models

// AllocationRow is one asset class and its share of a model portfolio.
type AllocationRow struct {
	Asset   string `json:"asset"`
	Percent int    `json:"percent"`
}

// AllocationTable is a model portfolio. Templates sum to 100.
type AllocationTable []AllocationRow

// Total returns the sum of all row percentages.
func (t AllocationTable) Total() int {
	total := 0
	for _, r := range t {
		total += r.Percent
	}
	return total
}
