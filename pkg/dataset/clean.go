package dataset

// Clean performs the one-time cleaning pass over collected samples:
// aircraft with any missing sample are dropped entirely, then aircraft with
// fewer than minSamples samples are dropped. The surviving records keep their
// input order.
func Clean(samples []Sample, minSamples int) []FlightRecord {
	incomplete := make(map[string]bool)
	counts := make(map[string]int)
	for _, s := range samples {
		if s.Missing {
			incomplete[s.EntityID] = true
		}
		counts[s.EntityID]++
	}

	records := make([]FlightRecord, 0, len(samples))
	for _, s := range samples {
		if incomplete[s.EntityID] || counts[s.EntityID] < minSamples {
			continue
		}
		records = append(records, s.FlightRecord)
	}
	return records
}
