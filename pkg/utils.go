// Package pkg
package pkg

import (
	"math"
	"strings"
)

const Unknown = "N/A"

func ContainsAny(s string, xs []string) bool {
	s = strings.ToLower(s)

	for _, x := range xs {
		x = strings.ToLower(x)

		if strings.HasSuffix(x, "*") {
			prefix := strings.TrimSuffix(x, "*")
			if strings.HasPrefix(s, prefix) {
				return true
			}
			continue
		}

		if strings.Contains(s, x) {
			return true
		}
	}

	return false
}

// Percent returns part/total*100, or 0 when total is not positive.
func Percent(part, total float64) float64 {
	if total <= 0 || math.IsNaN(part) || math.IsNaN(total) {
		return 0
	}
	return part / total * 100
}

func OrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return strings.TrimSpace(s)
}

func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
