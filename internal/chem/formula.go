package chem

import (
	"sort"
	"strconv"
	"strings"
)

// HillOrder returns the symbols of counts in Hill order: carbon first, then
// hydrogen, then the rest lexicographically.
func HillOrder(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := hillRank(keys[i]), hillRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func hillRank(symbol string) int {
	switch symbol {
	case "C":
		return 0
	case "H":
		return 1
	default:
		return 2
	}
}

// Formula renders counts as a plain Hill formula, e.g. "C2H6O".
func Formula(counts map[string]int) string {
	return render(counts, func(n int) string { return strconv.Itoa(n) })
}

// DisplayFormula renders counts with subscript markup, e.g. "H<sub>2</sub>O".
func DisplayFormula(counts map[string]int) string {
	return render(counts, func(n int) string { return "<sub>" + strconv.Itoa(n) + "</sub>" })
}

func render(counts map[string]int, suffix func(int) string) string {
	var b strings.Builder
	for _, sym := range HillOrder(counts) {
		n := counts[sym]
		if n <= 0 {
			continue
		}
		b.WriteString(sym)
		if n > 1 {
			b.WriteString(suffix(n))
		}
	}
	return b.String()
}
