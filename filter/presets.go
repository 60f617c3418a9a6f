package filter

import "sort"

// Presets returns the built-in filter expressions. The quartile presets
// keep one record per source, technique and year, chosen by range.
func Presets() map[string]string {
	return map[string]string{
		"median":        `quantile(d, ["key", "technique", "year(date)"], "range", 0.5)`,
		"lowerquartile": `quantile(d, ["key", "technique", "year(date)"], "range", 0.25)`,
		"upperquartile": `quantile(d, ["key", "technique", "year(date)"], "range", 0.75)`,
		"measured":      `d.computation_time == nil`,
		"computed":      `d.computation_time != nil`,
		"hasdiameter":   `d.diam != nil`,
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
