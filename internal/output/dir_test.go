package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/phrasereport/internal/report"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"checkout flow":       "checkout-flow",
		"  Login / SSO (v2) ": "login-sso-v2",
		"Ünïcode Title":       "ünïcode-title",
		"!!!":                 "report",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestDirWriterJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w, err := NewDir(dir, FormatJSON)
	require.NoError(t, err)

	doc := sampleDoc()
	doc.Reports = append(doc.Reports, report.TechnicalReportData{TestCaseTitle: "Login", Status: report.StatusPassed})
	require.NoError(t, w.Render(doc))

	for _, name := range []string{"login.json", "checkout-flow.json", "login-2.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "checkout-flow.json"))
	require.NoError(t, err)
	got, err := report.DecodeJSON(data)
	require.NoError(t, err)
	assert.True(t, got.Equal(doc.Reports[1]))
}

func TestDirWriterNeverOverwritesWithinBatch(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDir(dir, FormatJSON)
	require.NoError(t, err)

	doc := Document{Reports: []report.TechnicalReportData{
		{TestCaseTitle: "a", Status: report.StatusPassed, FilteredPhraseBody: []string{"first"}},
		{TestCaseTitle: "a", Status: report.StatusPassed, FilteredPhraseBody: []string{"second"}},
		{TestCaseTitle: "a-2", Status: report.StatusPassed},
	}}
	require.NoError(t, w.Render(doc))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, len(doc.Reports))

	for name, want := range map[string]report.TechnicalReportData{
		"a.json":     doc.Reports[0],
		"a-2.json":   doc.Reports[1],
		"a-2-2.json": doc.Reports[2],
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		got, err := report.DecodeJSON(data)
		require.NoError(t, err, name)
		assert.True(t, got.Equal(want), "%s holds %+v", name, got)
	}
}

func TestDirWriterProto(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDir(dir, FormatProto)
	require.NoError(t, err)

	r := sampleDoc().Reports[1]
	path, err := w.Write(r, "checkout")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "checkout.pb"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := report.Decode(data)
	require.NoError(t, err)
	assert.True(t, got.Equal(r))
}

func TestDirWriterUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	w, err := NewDir(filepath.Join(file, "reports"), FormatJSON)
	require.NoError(t, err)
	err = w.Render(sampleDoc())
	assert.ErrorIs(t, err, report.ErrReportGeneration)
}

func TestNewDirRejectsFormat(t *testing.T) {
	_, err := NewDir(t.TempDir(), "pretty")
	assert.Error(t, err)
}
