// Package cli provides output helpers for the meetkant command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hyperjump/meetkant/internal/models"
	"github.com/hyperjump/meetkant/pkg/utils"
)

// OutputFormat is the format for result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// PassagePreviewLen is how many characters of passage text the text format shows.
const PassagePreviewLen = 200

const compactPreviewWords = 16

// ParseOutputFormat validates a user-supplied format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// QueryResponse is the JSON shape of a query answer.
type QueryResponse struct {
	Query   string               `json:"query"`
	Lang    string               `json:"lang,omitempty"`
	Count   int                  `json:"count"`
	Results []models.QueryResult `json:"results"`
}

// WriteResults writes retrieval results to w in the given format.
// Unknown formats fall back to text.
func WriteResults(w io.Writer, query, lang string, results []models.QueryResult, format OutputFormat) error {
	if results == nil {
		results = []models.QueryResult{}
	}
	switch format {
	case OutputJSON:
		return WriteJSON(w, QueryResponse{Query: query, Lang: lang, Count: len(results), Results: results})
	case OutputCompact:
		for i, r := range results {
			if _, err := fmt.Fprintf(w, "%d\t%.4f\t%s/%s\t%s\t%s\n", i+1, r.Score, r.WorkID, r.ParaID, r.Lang,
				TruncateWords(r.Text, compactPreviewWords)); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeResultsText(w, results)
	}
}

func writeResultsText(w io.Writer, results []models.QueryResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nFound %d passage(s)\n\n", len(results))
	for i, r := range results {
		b.WriteString("─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(&b, "Rank: %d | Score: %.4f | Lang: %s\n", i+1, r.Score, r.Lang)
		fmt.Fprintf(&b, "Source: %s/%s\n", r.WorkID, r.ParaID)
		fmt.Fprintf(&b, "\n%s\n\n", utils.Truncate(r.Text, PassagePreviewLen))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// FormatBytes renders a byte count for status output, e.g. "1.2 MB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
