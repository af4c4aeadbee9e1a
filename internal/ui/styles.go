// Package ui provides consistent styling for the wayframe CLI
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Color palette - consistent across the application
var (
	ColorPrimary = lipgloss.Color("39")  // Bright blue
	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorInfo    = lipgloss.Color("86")  // Cyan

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)
)

var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconPending = "·"
)

// GlobalRow is one line of the globals table.
type GlobalRow struct {
	Name      uint32
	Interface string
	Version   uint32
	Required  bool
}

// FormatHeader renders a title over a separator.
func FormatHeader(title, subtitle string) string {
	header := HeaderStyle.Render(title)
	if subtitle != "" {
		header += " " + SubtleStyle.Render(subtitle)
	}
	return header + "\n" + CreateSeparator(50, "─")
}

// FormatResult renders a check or cross followed by the message.
func FormatResult(ok bool, message string) string {
	if ok {
		return SuccessStyle.Render(IconSuccess) + " " + message
	}
	return ErrorStyle.Render(IconError) + " " + message
}

// GlobalsTable renders advertised globals, highlighting the ones a client
// session binds.
func GlobalsTable(rows []GlobalRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		required := IconPending
		if r.Required {
			required = IconSuccess
		}
		cells = append(cells, []string{
			fmt.Sprintf("%d", r.Name),
			r.Interface,
			fmt.Sprintf("%d", r.Version),
			required,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return lipgloss.NewStyle().
					Foreground(ColorPrimary).
					Bold(true).
					Padding(0, 1)
			case col == 3 && rows[row].Required:
				return lipgloss.NewStyle().
					Foreground(ColorSuccess).
					Bold(true).
					Padding(0, 1)
			default:
				return lipgloss.NewStyle().
					Foreground(ColorText).
					Padding(0, 1)
			}
		}).
		Headers("NAME", "INTERFACE", "VERSION", "REQUIRED").
		Rows(cells...)

	return t.String()
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}

	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
