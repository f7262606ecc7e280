package render

import (
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	// Capitalize first letter
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}

	return color.New(color.FgRed).Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// FormatVerificationStatus renders a verification status as a colored title
func FormatVerificationStatus(status models.VerificationStatus) string {
	label := cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))

	switch status {
	case models.VerificationStatusVerified, models.VerificationStatusAlreadyVerified:
		return color.New(color.FgGreen).Sprint(label)
	case models.VerificationStatusFailed:
		return color.New(color.FgRed).Sprint(label)
	default:
		return color.New(color.FgYellow).Sprint(label)
	}
}

// keyValueTable renders two aligned columns without borders
func keyValueTable(rows [][2]string) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:  "  ",
		PaddingRight: "   ",
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
	})

	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		t.AppendRow(table.Row{color.New(color.Faint).Sprint(row[0]), row[1]})
	}

	return t.Render()
}
