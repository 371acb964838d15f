package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/sessionshard/pkg/pool"
)

// PoolTable describes the members of p as a markdown table.
func PoolTable(p *pool.Pool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Pool (%d members, total weight %d)\n\n", len(p.Members()), p.TotalWeight())
	b.WriteString("| # | Address | Weight | Share | Prefix | Auth | Failover |\n")
	b.WriteString("|---|---------|--------|-------|--------|------|----------|\n")

	for _, m := range p.Members() {
		failover := "-"
		if m.HasFailover() {
			failover = m.Failover().Addr()
		}
		auth := "no"
		if m.HasAuth() {
			auth = "yes"
		}
		share := float64(m.Weight()) * 100 / float64(p.TotalWeight())
		fmt.Fprintf(&b, "| %d | %s | %d | %.1f%% | `%s` | %s | %s |\n",
			m.Index(), escape(m.Addr()), m.Weight(), share, m.Prefix(), auth, escape(failover))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
