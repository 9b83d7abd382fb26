package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lcalzada-xor/axss/pkg/models"
	"golang.org/x/term"
)

// Format selects how findings are rendered.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatURL   Format = "url"
)

// ParseFormat validates a --output value.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatHuman, FormatJSON, FormatURL:
		return f, nil
	case "":
		return FormatHuman, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want human, json or url)", raw)
	}
}

// Purple palette used across the terminal output.
var (
	primary  = lipgloss.Color("#7D56F4")
	accent   = lipgloss.Color("#AF87FF")
	muted    = lipgloss.Color("#6B7280")
	critical = lipgloss.Color("#FF3838")
	warning  = lipgloss.Color("#FFB800")
	success  = lipgloss.Color("#00D26A")

	headerStyle  = lipgloss.NewStyle().Foreground(primary).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(12)
	valueStyle   = lipgloss.NewStyle().Foreground(accent)
	payloadStyle = lipgloss.NewStyle().Foreground(critical)
	storedStyle  = lipgloss.NewStyle().Foreground(critical).Bold(true)
	typeStyle    = lipgloss.NewStyle().Foreground(warning).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// ColorEnabled reports whether f is a terminal that should get colour.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Formatter renders findings in one Format.
type Formatter struct {
	format Format
	color  bool
}

// NewFormatter returns a formatter. color only affects FormatHuman.
func NewFormatter(format Format, color bool) *Formatter {
	if format == "" {
		format = FormatHuman
	}
	return &Formatter{format: format, color: color}
}

func (f *Formatter) paint(s lipgloss.Style, text string) string {
	if !f.color {
		return text
	}
	return s.Render(text)
}

// Format renders one finding. JSON output is a single line.
func (f *Formatter) Format(res models.Finding) string {
	switch f.format {
	case FormatURL:
		return res.URL
	case FormatJSON:
		out, err := json.Marshal(res)
		if err != nil {
			return fmt.Sprintf(`{"error":"failed to marshal finding: %v"}`, err)
		}
		return string(out)
	default:
		return f.human(res)
	}
}

func (f *Formatter) human(res models.Finding) string {
	var sb strings.Builder
	sb.WriteString("\n" + f.paint(headerStyle, "[+] XSS Vulnerability Found") + "\n")

	typ := f.paint(typeStyle, string(res.Type))
	if res.Type == models.XSSStored {
		typ = f.paint(storedStyle, string(res.Type))
	}

	row := func(label, value string) {
		sb.WriteString("    " + f.label(label) + " " + value + "\n")
	}
	row("Type:", typ)
	row("URL:", f.paint(valueStyle, res.URL))
	row("Method:", f.paint(valueStyle, string(res.Method)))
	row("Parameter:", f.paint(valueStyle, res.Parameter))
	row("Context:", f.paint(valueStyle, string(res.Context)))
	row("Payload:", f.paint(payloadStyle, res.Payload))
	if res.Snippet != "" {
		row("Snippet:", strings.TrimSpace(res.Snippet))
	}
	return sb.String()
}

func (f *Formatter) label(text string) string {
	if !f.color {
		return fmt.Sprintf("%-11s", text)
	}
	return labelStyle.Render(text)
}

// Summary renders the end-of-scan totals.
func (f *Formatter) Summary(stats models.Stats, runID string) string {
	if f.format == FormatJSON {
		out, _ := json.Marshal(struct {
			RunID string       `json:"run_id"`
			Stats models.Stats `json:"summary"`
		}{runID, stats})
		return string(out)
	}

	var sb strings.Builder
	sb.WriteString("\n" + f.paint(headerStyle, "=== SCAN SUMMARY ===") + "\n")
	if runID != "" {
		sb.WriteString(fmt.Sprintf("    %s %s\n", f.label("Run:"), runID))
	}
	sb.WriteString(fmt.Sprintf("    %s %d\n", f.label("URLs:"), stats.URLsTested))
	sb.WriteString(fmt.Sprintf("    %s %d\n", f.label("Parameters:"), stats.ParamsTested))
	sb.WriteString(fmt.Sprintf("    %s %d\n", f.label("Requests:"), stats.Requests))
	if stats.Errors > 0 {
		sb.WriteString(fmt.Sprintf("    %s %d\n", f.label("Errors:"), stats.Errors))
	}
	if stats.Timeouts > 0 {
		sb.WriteString(fmt.Sprintf("    %s %d\n", f.label("Timeouts:"), stats.Timeouts))
	}
	if len(stats.WAFs) > 0 {
		sb.WriteString(fmt.Sprintf("    %s %s\n", f.label("WAF:"), strings.Join(stats.WAFs, ", ")))
	}

	found := fmt.Sprintf("%d", stats.VulnerabilitiesFound)
	if stats.VulnerabilitiesFound > 0 {
		found = f.paint(storedStyle, found)
	}
	sb.WriteString(fmt.Sprintf("    %s %s\n", f.label("Findings:"), found))
	if stats.VulnerabilitiesFound == 0 {
		sb.WriteString("\n" + f.paint(okStyle, "[✓] No XSS vulnerabilities detected") + "\n")
	}
	return sb.String()
}
