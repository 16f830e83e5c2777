package common

import (
	"fmt"
	"io"
	"strings"

	"fiat-bridge-registry-go/internal/models"
)

const (
	DefaultWidth = 80
	WideWidth    = 100
)

func writeHeader(w io.Writer, title string, width int) {
	rule := strings.Repeat("=", width)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", rule, title, rule)
}

func writeFooter(w io.Writer, message string, width int) {
	rule := strings.Repeat("=", width)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n\n", rule, message, rule)
}

// treePrefixes returns the item and detail prefixes for a tree entry
func treePrefixes(last bool) (string, string) {
	if last {
		return "└  ", "   "
	}
	return "│  ", "│  "
}

// WriteRouteReport prints buy and sell routes as trees followed by the pool summary.
func WriteRouteReport(w io.Writer, buyRoutes []models.BuyRoute, sellRoutes []models.SellRoute, stats *models.PoolStats) {
	writeHeader(w, fmt.Sprintf("BUY ROUTES (%d)", len(buyRoutes)), WideWidth)
	for i, r := range buyRoutes {
		item, detail := treePrefixes(i == len(buyRoutes)-1)
		fmt.Fprintf(w, "%s%s  active=%t\n", item, r.Id, r.Active)
		fmt.Fprintf(w, "%s  iban=%s  bank_usage=%s\n", detail, r.Iban, r.BankUsage)
	}

	writeHeader(w, fmt.Sprintf("SELL ROUTES (%d)", len(sellRoutes)), WideWidth)
	for i, r := range sellRoutes {
		item, detail := treePrefixes(i == len(sellRoutes)-1)
		fmt.Fprintf(w, "%s%s  active=%t\n", item, r.Id, r.Active)
		fmt.Fprintf(w, "%s  iban=%s  deposit=%s\n", detail, r.Iban, r.DepositAddress)
	}

	writeFooter(w, fmt.Sprintf("Deposit pool: %d free of %d", stats.Free, stats.Total), WideWidth)
}

// WritePoolStats prints the deposit pool counters
func WritePoolStats(w io.Writer, stats *models.PoolStats) {
	writeHeader(w, "DEPOSIT POOL", DefaultWidth)
	fmt.Fprintf(w, "Total: %d\nUsed:  %d\nFree:  %d\n", stats.Total, stats.Used, stats.Free)
	fmt.Fprintln(w, strings.Repeat("=", DefaultWidth))
}

// WriteSeedSummary prints what a catalog seed run did
func WriteSeedSummary(w io.Writer, seed *CatalogSeed, created int) {
	writeHeader(w, "CATALOG", DefaultWidth)
	fmt.Fprintf(w, "Assets: %d  Fiats: %d  Created: %d\n", len(seed.Assets), len(seed.Fiats), created)
	writeFooter(w, "Setup complete", DefaultWidth)
}
