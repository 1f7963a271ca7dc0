package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/lead-hunter/internal/leads"
)

// TextTitle heads the plain-text export.
const TextTitle = "Lead Hunter Pro Results"

var csvHeader = []string{"url", "type", "value", "timestamp"}

// record is the flat shape shared by the CSV and JSON exports.
type record struct {
	URL       string  `json:"url"`
	Type      string  `json:"type"`
	Value     string  `json:"value"`
	Timestamp float64 `json:"timestamp"`
}

func toRecord(l leads.Lead) record {
	return record{
		URL:       l.SourceURL,
		Type:      string(l.Kind),
		Value:     l.Value,
		Timestamp: epochSeconds(l.DiscoveredAt),
	}
}

// epochSeconds returns t as fractional seconds since the Unix epoch, microsecond precision.
func epochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// WriteCSV writes a header row and one row per lead.
func WriteCSV(w io.Writer, records []leads.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range records {
		r := toRecord(l)
		row := []string{r.URL, r.Type, r.Value, strconv.FormatFloat(r.Timestamp, 'f', -1, 64)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON writes an indented array of lead objects.
func WriteJSON(w io.Writer, records []leads.Lead) error {
	out := make([]record, 0, len(records))
	for _, l := range records {
		out = append(out, toRecord(l))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteText writes the human-readable report. Timestamps are rendered in loc
// using the ANSI C layout.
func WriteText(w io.Writer, records []leads.Lead, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString(TextTitle + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	for _, l := range records {
		fmt.Fprintf(&b, "%s: %s\n", l.Kind.Upper(), l.Value)
		fmt.Fprintf(&b, "Source: %s\n", l.SourceURL)
		fmt.Fprintf(&b, "Found: %s\n", l.DiscoveredAt.In(loc).Format(time.ANSIC))
		b.WriteString(strings.Repeat("-", 30) + "\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}
