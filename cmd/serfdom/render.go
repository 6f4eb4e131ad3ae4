package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

var stageCaser = cases.Title(language.English)

// stageLabel turns a wire stage name like "data_analysis" into a display
// label like "Data Analysis".
func stageLabel(stage string) string {
	if stage == "" {
		return ""
	}
	return stageCaser.String(strings.ReplaceAll(stage, "_", " "))
}

func statusColor(status string) string {
	switch status {
	case "completed":
		return ansiGreen
	case "failed", "cancelled":
		return ansiRed
	case "processing", "pending":
		return ansiYellow
	default:
		return ""
	}
}

func colorizeStatus(status string, colorize bool) string {
	if !colorize {
		return status
	}
	if color := statusColor(status); color != "" {
		return color + status + ansiReset
	}
	return status
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printJSON(out io.Writer, payload any) error {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(out, string(encoded))
	return nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
