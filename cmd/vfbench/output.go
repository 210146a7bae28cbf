package main

import (
	"fmt"
	"strings"
	"time"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
)

func resolveOutputFormat(s string) (outputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return formatTable, nil
	case "json":
		return formatJSON, nil
	default:
		return "", fmt.Errorf("invalid --output %q (expected table|json)", s)
	}
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format(time.RFC3339)
}
