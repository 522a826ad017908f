package bands

import "fmt"

// Timesteps is the number of monthly observations per example.
const Timesteps = 12

// All is the stored channel order of every feature array. Index functions and the
// on-disk layout depend on it, never reorder.
var All = []string{
	"VV", "VH",
	"B2", "B3", "B4", "B5", "B6", "B7", "B8", "B8A", "B9", "B11", "B12",
	"temperature_2m", "total_precipitation",
	"elevation", "slope",
	"NDVI",
}

var positions = func() map[string]int {
	m := make(map[string]int, len(All))
	for i, name := range All {
		m[name] = i
	}
	return m
}()

// Index returns the channel position of a band name. It panics on unknown names since
// callers only use names from All.
func Index(name string) int {
	i, ok := positions[name]
	if !ok {
		panic(fmt.Sprintf("unknown band %q", name))
	}
	return i
}
