// Package rounding implements the deterministic cent rounding and
// tax-amount arithmetic used by every jurisdiction pack. Tax authorities
// require bit-for-bit reproducible cent amounts, so the tie-breaking rule
// here is load-bearing: halves round toward positive infinity, which is not
// the same as rounding away from zero for negative amounts.
package rounding

import "math"

// Mode selects how per-line tax amounts are rounded into a document total.
type Mode string

const (
	// ModePerLine rounds every line independently and sums the rounded values.
	ModePerLine Mode = "PER_LINE"

	// ModePerDocument sums the exact values and rounds the sum once.
	// Lines are still reported individually rounded, so the reported line
	// amounts may not sum to the total. This mismatch is a known limitation
	// of the v1 rounding scheme and is kept because changing it would alter
	// audit-visible amounts.
	ModePerDocument Mode = "PER_DOCUMENT"
)

// RoundCents rounds an amount to the nearest integer cent. Halves round
// toward positive infinity: 10.5 -> 11, -10.5 -> -10, -10.6 -> -11.
func RoundCents(amount float64) int64 {
	return int64(math.Floor(amount + 0.5))
}

// CalculateTaxCents computes the rounded tax on a net amount at a rate
// expressed in basis points (1900 bps = 19%). Pure and deterministic:
// identical inputs always yield identical output.
func CalculateTaxCents(netAmountCents int64, rateBps int32) int64 {
	return RoundCents(float64(netAmountCents) * float64(rateBps) / 10000.0)
}

// ApplyMode rounds a set of exact per-line tax amounts under the given
// mode. It returns the document tax total and the individually rounded
// line amounts. Under ModePerLine the total is the sum of the rounded
// lines; under ModePerDocument the total is the rounded sum of the exact
// values while lines keep their independent rounding.
func ApplyMode(mode Mode, lineTaxes []float64) (int64, []int64) {
	lineRounded := make([]int64, len(lineTaxes))
	for i, tax := range lineTaxes {
		lineRounded[i] = RoundCents(tax)
	}

	switch mode {
	case ModePerDocument:
		var exact float64
		for _, tax := range lineTaxes {
			exact += tax
		}
		return RoundCents(exact), lineRounded
	default:
		var total int64
		for _, cents := range lineRounded {
			total += cents
		}
		return total, lineRounded
	}
}
