package yamlsuite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/phrasereport/internal/phrase"
)

const checkoutSuite = `
name: Checkout
env:
  CURRENCY: EUR
  RETRIES: 3
shell: sh
working-directory: ./app
steps:
  - match: "/^given cart has (.+)$/"
    run: test -n "$PHRASE_ARG_1"
  - match: when user pays
    run: ./pay
    env:
      GATEWAY: sandbox
test_cases:
  - title: checkout flow
    tags: [smoke]
    phrases:
      - given cart has item
      - body: when user pays
        tags: [payments]
      - then order confirmed
`

func writeSuite(t *testing.T, root, name, contents string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return name
}

func TestParserParseBasic(t *testing.T) {
	root := t.TempDir()
	rel := writeSuite(t, root, "checkout.yml", checkoutSuite)

	coll, err := NewParser(root).Parse([]string{rel})
	require.NoError(t, err)
	require.Len(t, coll.Suites, 1)
	assert.Empty(t, coll.Warnings)

	s := coll.Suites[0]
	assert.Equal(t, "Checkout", s.Name)
	assert.Equal(t, "checkout.yml", s.Path)
	assert.Equal(t, map[string]string{"CURRENCY": "EUR", "RETRIES": "3"}, s.Env)
	assert.Equal(t, "sh", s.Shell)
	assert.Equal(t, "./app", s.WorkingDirectory)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "sandbox", s.Steps[1].Env["GATEWAY"])

	require.Len(t, s.TestCases, 1)
	tc := s.TestCases[0]
	assert.Equal(t, "checkout flow", tc.Title)
	assert.Equal(t, []phrase.Phrase{
		{Index: 0, Body: "given cart has item", Tags: []string{"smoke"}},
		{Index: 1, Body: "when user pays", Tags: []string{"smoke", "payments"}},
		{Index: 2, Body: "then order confirmed", Tags: []string{"smoke"}},
	}, tc.Phrases)
	assert.Equal(t, 3, s.PhraseCount())
}

func TestDecodeDefaultsAndWarnings(t *testing.T) {
	doc := `
steps:
  - match: noop
test_cases:
  - phrases: [noop]
  - title: empty
  - title: empty
    phrases: [noop]
`
	s, warnings, err := Decode(strings.NewReader(doc), "suites/login.yaml")
	require.NoError(t, err)

	assert.Equal(t, "login", s.Name)
	assert.Equal(t, "login #1", s.TestCases[0].Title)
	assert.Nil(t, s.TestCases[0].Phrases[0].Tags)

	var messages []string
	for _, w := range warnings {
		messages = append(messages, w.Message)
	}
	assert.Contains(t, messages, `step "noop" has no run command and always passes`)
	assert.Contains(t, messages, "test case has no phrases")
	assert.Contains(t, messages, "duplicate test case title; reports will share a name")
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"missing match": "steps:\n  - run: echo\n",
		"unknown key":   "tests: []\n",
		"bad phrase":    "test_cases:\n  - phrases:\n      - [a, b]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode(strings.NewReader(doc), "bad.yml")
			assert.Error(t, err)
		})
	}
}

func TestParserMissingFile(t *testing.T) {
	_, err := NewParser(t.TempDir()).Parse([]string{"missing.yml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `open suite "missing.yml"`)
}
