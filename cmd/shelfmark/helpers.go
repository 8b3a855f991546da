package main

import (
	"errors"
	"fmt"
	"time"

	"shelfmark/internal/registry"
)

var errJournalDisabled = errors.New("the audit journal is disabled; enable [journal] in the configuration")

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func formatDate(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.UTC().Format("2006-01-02")
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

func blockScope(block registry.Block) string {
	if block.ImprintScoped() {
		return block.PublisherCode + "/" + block.ImprintCode
	}
	return block.PublisherCode
}

func blockRange(block registry.Block) string {
	return fmt.Sprintf("%d-%d", block.Start, block.End)
}
