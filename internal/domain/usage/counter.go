package usage

import "time"

// Counter is the consumption of one user on one endpoint.
type Counter struct {
	UserID      string
	Endpoint    string
	Count       int64
	LastUpdated time.Time
}

// Total sums the counts of counters.
func Total(counters []Counter) int64 {
	var total int64
	for _, c := range counters {
		total += c.Count
	}
	return total
}
