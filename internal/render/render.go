// Package render formats books, libraries and OCR results for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/bookscout/internal/library"
	"github.com/lepinkainen/bookscout/internal/ocr"
)

const (
	lightText = lipgloss.Color("255")
	darkText  = lipgloss.Color("236")
)

type badgeColor struct {
	bg lipgloss.Color
	fg lipgloss.Color
}

// Badge colours per short region name.
var regionColors = map[string]badgeColor{
	"서울": {"75", lightText},
	"경기": {"78", lightText},
	"부산": {"203", lightText},
	"대구": {"141", lightText},
	"인천": {"221", darkText},
	"광주": {"34", lightText},
	"대전": {"215", lightText},
	"울산": {"87", darkText},
	"세종": {"135", lightText},
	"강원": {"105", lightText},
	"충북": {"228", darkText},
	"충남": {"216", darkText},
	"전북": {"120", darkText},
	"전남": {"117", darkText},
	"경북": {"210", darkText},
	"경남": {"157", darkText},
	"제주": {"229", darkText},
	"기타": {"252", darkText},
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("254"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("161")).Bold(true)
	badgeBase    = lipgloss.NewStyle().Padding(0, 1).Bold(true)
)

// RegionBadge renders a coloured label for a region code, name or address.
func RegionBadge(region string) string {
	name := library.RegionName(region)
	c, ok := regionColors[name]
	if !ok {
		c = regionColors[library.OtherRegion]
	}
	return badgeBase.Copy().Background(c.bg).Foreground(c.fg).Render(name)
}

// Books writes one block per book.
func Books(w io.Writer, books []library.Book) {
	if len(books) == 0 {
		_, _ = fmt.Fprintln(w, metaStyle.Render("No books found."))
		return
	}
	for i, b := range books {
		_, _ = fmt.Fprintf(w, "%2d. %s\n", i+1, titleStyle.Render(b.Title))
		if credits := joinNonEmpty(" | ", b.Author, b.Publisher, b.PublicationYear); credits != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", metaStyle.Render(credits))
		}
		line := "ISBN " + b.ISBN
		if b.LoanCount > 0 {
			line += "  " + countStyle.Render(fmt.Sprintf("%d loans", b.LoanCount))
		}
		_, _ = fmt.Fprintf(w, "    %s\n", line)
	}
}

// Libraries writes one block per library with its region badge.
func Libraries(w io.Writer, libs []library.Library) {
	if len(libs) == 0 {
		_, _ = fmt.Fprintln(w, metaStyle.Render("No libraries found."))
		return
	}
	for i, l := range libs {
		region := l.Region
		if region == "" {
			region = l.Address
		}
		header := fmt.Sprintf("%2d. %s %s", i+1, RegionBadge(region), titleStyle.Render(l.Name))
		if l.BookCount > 0 {
			header += " " + countStyle.Render(fmt.Sprintf("(%d copies)", l.BookCount))
		}
		_, _ = fmt.Fprintln(w, header)
		if l.Address != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", metaStyle.Render(l.Address))
		}
		if details := joinNonEmpty(" | ", l.Phone, l.Hours, closedLabel(l.Closed)); details != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", metaStyle.Render(details))
		}
		if l.Homepage != "" {
			_, _ = fmt.Fprintf(w, "    %s\n", l.Homepage)
		}
	}
}

// RegionSummary writes how many libraries were found per region, in region table order.
func RegionSummary(w io.Writer, libs []library.Library) {
	counts := make(map[string]int)
	for _, l := range libs {
		counts[library.RegionName(firstNonEmpty(l.Region, l.RegionCode, l.Address))]++
	}
	var parts []string
	for _, r := range library.Regions() {
		if n := counts[r.Name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", RegionBadge(r.Name), n))
		}
	}
	if n := counts[library.OtherRegion]; n > 0 {
		parts = append(parts, fmt.Sprintf("%s %d", RegionBadge(library.OtherRegion), n))
	}
	if len(parts) > 0 {
		_, _ = fmt.Fprintln(w, strings.Join(parts, "  "))
	}
}

// Analysis writes an OCR upload result.
func Analysis(w io.Writer, r *ocr.AnalysisResult) {
	_, _ = fmt.Fprintf(w, "%s %s\n", metaStyle.Render("Title:"), titleStyle.Render(r.Title()))
	_, _ = fmt.Fprintf(w, "%s %d segments, mean confidence %.2f\n",
		metaStyle.Render("OCR:"), r.OCR.TotalTextCount, r.MeanConfidence())
	if r.OCR.ExtractedText != "" {
		_, _ = fmt.Fprintf(w, "%s\n", metaStyle.Render(r.OCR.ExtractedText))
	}
	if r.GPT.GPTModel != "" {
		_, _ = fmt.Fprintf(w, "%s %s, %d tokens\n", metaStyle.Render("Model:"), r.GPT.GPTModel, r.GPT.TokensUsed)
	}
	for _, msg := range []string{r.OCR.ErrorMessage, r.GPT.ErrorMessage} {
		if msg != "" {
			Error(w, msg)
		}
	}
	_, _ = fmt.Fprintf(w, "%s %.0f ms\n", metaStyle.Render("Total:"), r.TotalProcessingTimeMS)
}

// Health writes an OCR backend health status.
func Health(w io.Writer, s ocr.HealthStatus) {
	if s.Healthy {
		_, _ = fmt.Fprintf(w, "%s (%s)\n", countStyle.Render("healthy"), s.ResponseTime.Round(time.Millisecond))
		return
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", errorStyle.Render("unhealthy"), s.Error)
}

// Warning writes a highlighted warning line.
func Warning(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf(format, args...)))
}

// Error writes a highlighted error line.
func Error(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, errorStyle.Render(msg))
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func closedLabel(closed string) string {
	if closed == "" {
		return ""
	}
	return "closed " + closed
}

func joinNonEmpty(sep string, values ...string) string {
	var parts []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
