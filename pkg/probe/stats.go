package probe

import "math"

// BatchStats summarizes a batch of probe results
type BatchStats struct {
	Rays         int     `yaml:"rays"`          // Total number of rays cast
	Hits         int     `yaml:"hits"`          // Rays that struck a facet
	Misses       int     `yaml:"misses"`        // Rays that struck nothing
	MinDistance  float64 `yaml:"min_distance"`  // Closest hit, +Inf without hits
	MaxDistance  float64 `yaml:"max_distance"`  // Farthest hit, zero without hits
	MeanDistance float64 `yaml:"mean_distance"` // Average hit distance, zero without hits
}

// Summarize computes statistics over results
func Summarize(results []Result) BatchStats {
	stats := BatchStats{
		Rays:        len(results),
		MinDistance: math.Inf(1),
	}

	total := 0.0
	for _, result := range results {
		if !result.Hit {
			stats.Misses++
			continue
		}
		stats.Hits++
		total += result.Distance
		stats.MinDistance = math.Min(stats.MinDistance, result.Distance)
		stats.MaxDistance = math.Max(stats.MaxDistance, result.Distance)
	}

	if stats.Hits > 0 {
		stats.MeanDistance = total / float64(stats.Hits)
	}
	return stats
}
