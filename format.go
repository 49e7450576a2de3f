package main

import (
	"fmt"
	"strconv"
	"strings"

	"loto-optimizer/internal/combo"
	"loto-optimizer/internal/generator"
)

// FormatHeader renders the one-line run summary printed above the tickets.
func FormatHeader(res *generator.Result) string {
	return fmt.Sprintf("# %s | tickets=%d | k=%d | pool=%d | t=%d | lam_overlap=%g | lam_pop=%g",
		res.Game, len(res.Tickets), res.K, len(res.Pool), res.T, res.LamOverlap, res.LamPop)
}

// FormatPool renders the pool as "# pool: [1, 2, 3]".
func FormatPool(pool []int) string {
	parts := make([]string, len(pool))
	for i, n := range pool {
		parts[i] = strconv.Itoa(n)
	}
	return "# pool: [" + strings.Join(parts, ", ") + "]"
}

// FormatTicket renders one numbered ticket line with zero-padded numbers.
func FormatTicket(i int, t combo.Ticket) string {
	nums := make([]string, len(t))
	for j, n := range t {
		nums[j] = fmt.Sprintf("%02d", n)
	}
	return fmt.Sprintf("Ticket %02d: %s", i, strings.Join(nums, " "))
}

// FormatResult renders the header, the pool and every ticket, one per line.
func FormatResult(res *generator.Result) string {
	var sb strings.Builder
	sb.WriteString(FormatHeader(res))
	sb.WriteByte('\n')
	sb.WriteString(FormatPool(res.Pool))
	for i, t := range res.Tickets {
		sb.WriteByte('\n')
		sb.WriteString(FormatTicket(i+1, t))
	}
	if res.Shortfall > 0 {
		fmt.Fprintf(&sb, "\n# shortfall: %d of %d tickets could not be generated", res.Shortfall, res.Requested)
	}
	return sb.String()
}
