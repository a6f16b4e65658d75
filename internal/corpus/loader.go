package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/meetkant/internal/models"
	"github.com/hyperjump/meetkant/pkg/utils"
)

// DefaultExtensions are the file extensions scanned when none are configured.
var DefaultExtensions = []string{".jsonl"}

// maxLineBytes bounds a single record line.
const maxLineBytes = 16 << 20

// Option configures Load.
type Option func(*loader)

type loader struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for parse warnings and fallback notices.
func WithLogger(l *zap.Logger) Option {
	return func(ld *loader) { ld.logger = l }
}

// Load reads every file in dir (non-recursive) whose extension is in extensions, in
// lexicographic path order, one JSON object per line. Lines that fail to parse are
// logged and skipped. When no valid record is found, including when dir is missing or
// holds no matching files, the built-in sample catalog is returned.
func Load(dir string, extensions []string, opts ...Option) (*Catalog, error) {
	ld := &loader{}
	for _, opt := range opts {
		opt(ld)
	}
	ld.logger = utils.OrNop(ld.logger)
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	files, err := listFiles(dir, extensions)
	if err != nil {
		return nil, err
	}

	var records []models.PassageRecord
	for _, path := range files {
		recs, err := ld.readFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	if len(records) == 0 {
		ld.logger.Info("no passages found, using built-in sample corpus",
			zap.String("dir", dir), zap.Int("files", len(files)), zap.Int("passages", len(samplePassages)))
		return SampleCatalog(), nil
	}
	ld.logger.Info("corpus loaded",
		zap.String("dir", dir), zap.Int("files", len(files)), zap.Int("passages", len(records)))
	return NewCatalog(records), nil
}

// listFiles returns the matching regular files of dir sorted by path. A missing
// directory yields no files.
func listFiles(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !extensionAllowed(filepath.Ext(e.Name()), extensions) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

func (ld *loader) readFile(path string) ([]models.PassageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer f.Close()

	var records []models.PassageRecord
	r := bufio.NewReaderSize(f, 64*1024)
	lineNo := 0
	for {
		line, oversized, err := readLine(r, maxLineBytes)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read corpus file %s: %w", path, err)
		}
		atEOF := err != nil
		if atEOF && len(line) == 0 && !oversized {
			break
		}
		lineNo++
		switch {
		case oversized:
			ld.logger.Warn("skipping oversized corpus line",
				zap.String("file", path), zap.Int("line", lineNo), zap.Int("max_bytes", maxLineBytes))
		case len(bytes.TrimSpace(line)) > 0:
			rec, err := parseRecord(bytes.TrimSpace(line))
			if err != nil {
				ld.logger.Warn("skipping invalid corpus line",
					zap.String("file", path), zap.Int("line", lineNo), zap.Error(err))
				break
			}
			records = append(records, rec)
		}
		if atEOF {
			break
		}
	}
	return records, nil
}

// readLine returns the next line without its newline. A line longer than limit is
// consumed up to its newline and reported as oversized with no content. The error is
// io.EOF when the input ended before a newline.
func readLine(r *bufio.Reader, limit int) (line []byte, oversized bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		chunk = bytes.TrimSuffix(chunk, []byte("\n"))
		if !oversized {
			if len(line)+len(chunk) > limit {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, oversized, err
	}
}

// rawRecord mirrors one source line. Unknown keys are ignored.
type rawRecord struct {
	WorkID field `json:"work_id"`
	ParaID field `json:"para_id"`
	Lang   field `json:"lang"`
	Text   field `json:"text"`
}

func parseRecord(line []byte) (models.PassageRecord, error) {
	if line[0] != '{' {
		return models.PassageRecord{}, errors.New("line is not a JSON object")
	}
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return models.PassageRecord{}, err
	}
	// Only a missing or null lang gets the default; an explicit "" is kept.
	lang := raw.Lang.value
	if !raw.Lang.set {
		lang = models.LangUnknown
	}
	return models.PassageRecord{
		WorkID: raw.WorkID.value,
		ParaID: raw.ParaID.value,
		Lang:   lang,
		Text:   raw.Text.value,
	}, nil
}

// field accepts a JSON string, number or boolean and keeps its text form. Null leaves it unset.
type field struct {
	value string
	set   bool
}

func (f *field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		if err := json.Unmarshal(data, &f.value); err != nil {
			return err
		}
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("unsupported field value %s", truncateRaw(data))
	default:
		f.value = string(data)
	}
	f.set = true
	return nil
}

func truncateRaw(b []byte) string {
	return utils.Truncate(string(b), 32)
}
