// Package formatter renders match results and rule sets for people and
// machines.
package formatter

import "github.com/fatih/color"

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgHiYellow, color.Bold)
	infoStyle    = color.New(color.FgHiBlue)
	ruleStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	matchStyle   = color.New(color.FgGreen, color.Bold)
	noStyle      = color.New(color.FgWhite)
)

func severityStyle(severity string) *color.Color {
	switch severity {
	case "ERROR":
		return errorStyle
	case "WARNING":
		return warningStyle
	case "INFO":
		return infoStyle
	}
	return noStyle
}
