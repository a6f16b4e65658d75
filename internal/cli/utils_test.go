package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/meetkant/internal/models"
)

func sampleResults() []models.QueryResult {
	return []models.QueryResult{
		{WorkID: "pure_reason", ParaID: "2", Lang: "en", Text: "The categorical imperative is the supreme principle of morality.", Score: 0.455},
		{WorkID: "practical_reason", ParaID: "1", Lang: "en", Text: strings.Repeat("Pflicht ", 60), Score: 0.388},
	}
}

func TestWriteResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, "What is the categorical imperative?", "en", sampleResults(), OutputJSON); err != nil {
		t.Fatalf("WriteResults(json): %v", err)
	}
	var decoded QueryResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Count != 2 || len(decoded.Results) != 2 {
		t.Fatalf("decoded count=%d results=%d, want 2", decoded.Count, len(decoded.Results))
	}
	if decoded.Results[0].WorkID != "pure_reason" || decoded.Results[0].ParaID != "2" {
		t.Errorf("first result = %+v", decoded.Results[0])
	}
	if decoded.Lang != "en" {
		t.Errorf("lang = %q", decoded.Lang)
	}
	// JSON keeps full passage text.
	if decoded.Results[1].Text != sampleResults()[1].Text {
		t.Error("JSON output should not truncate passage text")
	}
}

func TestWriteResults_JSON_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, "x", "", nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Errorf("empty results should encode as [], got %s", buf.String())
	}
}

func TestWriteResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, "q", "", sampleResults(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Found 2 passage(s)") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "Source: pure_reason/2") || !strings.Contains(out, "Score: 0.4550") {
		t.Errorf("missing first result:\n%s", out)
	}
	long := sampleResults()[1].Text
	if strings.Contains(out, long) {
		t.Error("text output should truncate long passages")
	}
	if !strings.Contains(out, long[:PassagePreviewLen]+"...") {
		t.Error("expected passage preview truncated to PassagePreviewLen")
	}
}

func TestWriteResults_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, "q", "", sampleResults(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "1\t0.4550\tpure_reason/2\ten\t") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "...") {
		t.Errorf("long passage should be cut to a word preview: %q", lines[1])
	}
}

func TestWriteResults_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, "q", "", nil, OutputFormat("unknown")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 0 passage(s)") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(0); got != "0 B" {
		t.Errorf("FormatBytes(0) = %q", got)
	}
	if got := FormatBytes(1500); got != "1.5 kB" {
		t.Errorf("FormatBytes(1500) = %q", got)
	}
	if got := FormatBytes(-3); got != "0 B" {
		t.Errorf("FormatBytes(-3) = %q", got)
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"collapses whitespace", "one\n two", 3, "one two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
