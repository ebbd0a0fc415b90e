package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bgricker/phrasereport/internal/report"
)

// DirWriter writes one file per report into a directory.
type DirWriter struct {
	dir    string
	format string
}

// NewDir creates a DirWriter. format is "json" or "proto".
func NewDir(dir, format string) (*DirWriter, error) {
	switch format {
	case FormatJSON, FormatProto:
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return &DirWriter{dir: dir, format: format}, nil
}

// Supported output formats.
const (
	FormatJSON  = "json"
	FormatProto = "proto"
)

// Render writes every report, stopping at the first failure. File names are
// derived from the test case title and made unique within the batch.
func (d *DirWriter) Render(doc Document) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return report.NewGenerationError("", "create output dir", err)
	}
	used := make(map[string]struct{}, len(doc.Reports))
	for _, r := range doc.Reports {
		base := Slug(r.TestCaseTitle)
		name := base
		for n := 2; ; n++ {
			if _, taken := used[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[name] = struct{}{}
		if _, err := d.Write(r, name); err != nil {
			return err
		}
	}
	return nil
}

// Write encodes r into <dir>/<name>.<ext> and returns the path.
func (d *DirWriter) Write(r report.TechnicalReportData, name string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)
	switch d.format {
	case FormatProto:
		data, err = r.MarshalBinary()
		ext = ".pb"
	default:
		data, err = report.EncodeJSON(r)
		ext = ".json"
	}
	if err != nil {
		return "", err
	}
	path := filepath.Join(d.dir, name+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", report.NewGenerationError(r.TestCaseTitle, "write file", err)
	}
	return path, nil
}

// Slug lower-cases title and replaces every run of non-alphanumerics with a
// dash.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "report"
	}
	return s
}
