package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haesinais/aisdash/internal/dashboard"
)

// chartBarWidth is the width of the longest bar, in cells
const chartBarWidth = 24

var (
	colorAccent = lipgloss.Color("63")
	colorMuted  = lipgloss.Color("240")
	colorBar    = lipgloss.Color("39")
	colorError  = lipgloss.Color("203")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	labelStyle = lipgloss.NewStyle().Width(8).Foreground(colorMuted)
	barStyle   = lipgloss.NewStyle().Foreground(colorBar)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// renderChart draws buckets as horizontal bars scaled to the largest count
func renderChart(title string, buckets []dashboard.Bucket, width int) string {
	peak := 0
	for _, b := range buckets {
		peak = max(peak, b.Count)
	}

	lines := []string{titleStyle.Render(title)}
	for _, b := range buckets {
		n := 0
		if peak > 0 {
			n = b.Count * width / peak
		}
		if n == 0 && b.Count > 0 {
			n = 1
		}
		bar := barStyle.Render(strings.Repeat("█", n))
		lines = append(lines, fmt.Sprintf("%s %s %d", labelStyle.Render(b.Label), bar, b.Count))
	}
	return strings.Join(lines, "\n")
}

// renderSelection draws the detail box of the selected vessel
func renderSelection(v dashboard.ViewState) string {
	if !v.HasSelection || v.Selected == nil {
		return mutedStyle.Render("No vessel selected")
	}
	r := v.Selected

	name := r.ShipName
	if name == "" {
		name = "(unnamed)"
	}
	lines := []string{
		titleStyle.Render(name),
		field("MMSI", r.MMSIText()),
		field("Position", fmt.Sprintf("%.4f, %.4f", r.Latitude, r.Longitude)),
		field("SOG", fmt.Sprintf("%.1f kn", r.Speed)),
		field("COG", fmt.Sprintf("%.0f°", r.Course)),
	}
	if row, ok := v.Row(r.MMSI); ok {
		lines = append(lines, field("HDG(M)", fmt.Sprintf("%.0f°", row.MagneticHeading)))
	}
	if r.Destination != "" {
		lines = append(lines, field("Dest", r.Destination))
	}
	if r.Timestamp != "" {
		lines = append(lines, field("Report", r.Timestamp))
	}

	if v.PredictedFor == r.MMSI && len(v.PredictedRoute) > 0 {
		lines = append(lines, "", titleStyle.Render("Predicted route"))
		for _, p := range v.PredictedRoute {
			ahead := "next"
			if p.MinutesAhead > 0 {
				ahead = fmt.Sprintf("+%dm", p.MinutesAhead)
			}
			lines = append(lines, field(ahead, fmt.Sprintf("%.4f, %.4f  %.1f nm", p.Lat, p.Lon, p.DistanceNM)))
		}
	}
	return strings.Join(lines, "\n")
}

func field(label, value string) string {
	return labelStyle.Render(label) + " " + value
}
