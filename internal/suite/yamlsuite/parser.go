package yamlsuite

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bgricker/phrasereport/internal/phrase"
	"github.com/bgricker/phrasereport/internal/suite"
)

// Parser loads suite files from disk.
type Parser struct {
	Root string
}

// NewParser constructs a Parser that resolves suite paths relative to root.
func NewParser(root string) *Parser {
	return &Parser{Root: root}
}

// Parse reads the supplied suite paths in order.
func (p *Parser) Parse(paths []string) (suite.Collection, error) {
	var out suite.Collection
	for _, relPath := range paths {
		full := relPath
		if !filepath.IsAbs(full) {
			full = filepath.Join(p.Root, relPath)
		}
		s, warnings, err := parseSuite(full, relPath)
		if err != nil {
			return suite.Collection{}, err
		}
		out.Suites = append(out.Suites, s)
		out.Warnings = append(out.Warnings, warnings...)
	}
	return out, nil
}

func parseSuite(fullPath, displayPath string) (suite.Suite, []suite.Warning, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		return suite.Suite{}, nil, fmt.Errorf("open suite %q: %w", displayPath, err)
	}
	defer f.Close()
	return Decode(f, displayPath)
}

// Decode parses one suite document. Phrases may be plain strings or mappings
// with body and tags; test-case tags are inherited by every phrase.
func Decode(r io.Reader, displayPath string) (suite.Suite, []suite.Warning, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var doc suiteDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return suite.Suite{}, nil, fmt.Errorf("parse suite %q: empty document", displayPath)
		}
		return suite.Suite{}, nil, fmt.Errorf("parse suite %q: %w", displayPath, err)
	}

	s := suite.Suite{
		Path:             displayPath,
		Name:             doc.Name,
		Env:              convertEnv(doc.Env),
		Shell:            doc.Shell,
		WorkingDirectory: doc.WorkingDirectory,
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(displayPath), filepath.Ext(displayPath))
	}

	warnings := make([]suite.Warning, 0)

	s.Steps = make([]suite.StepDefinition, 0, len(doc.Steps))
	for idx, stepDoc := range doc.Steps {
		if strings.TrimSpace(stepDoc.Match) == "" {
			return suite.Suite{}, nil, fmt.Errorf("parse suite %q: step %d has no match pattern", displayPath, idx+1)
		}
		if strings.TrimSpace(stepDoc.Run) == "" {
			warnings = append(warnings, suite.Warning{
				Suite:   displayPath,
				Message: fmt.Sprintf("step %q has no run command and always passes", stepDoc.Match),
			})
		}
		s.Steps = append(s.Steps, suite.StepDefinition{
			Match: stepDoc.Match,
			Run:   stepDoc.Run,
			Env:   convertEnv(stepDoc.Env),
		})
	}

	seen := make(map[string]struct{}, len(doc.TestCases))
	s.TestCases = make([]suite.TestCase, 0, len(doc.TestCases))
	for idx, tcDoc := range doc.TestCases {
		tc := suite.TestCase{Title: strings.TrimSpace(tcDoc.Title), Tags: tcDoc.Tags}
		if tc.Title == "" {
			tc.Title = fmt.Sprintf("%s #%d", s.Name, idx+1)
		}
		if _, dup := seen[tc.Title]; dup {
			warnings = append(warnings, suite.Warning{
				Suite:    displayPath,
				TestCase: tc.Title,
				Message:  "duplicate test case title; reports will share a name",
			})
		}
		seen[tc.Title] = struct{}{}

		if len(tcDoc.Phrases) == 0 {
			warnings = append(warnings, suite.Warning{
				Suite:    displayPath,
				TestCase: tc.Title,
				Message:  "test case has no phrases",
			})
		}

		tc.Phrases = make([]phrase.Phrase, 0, len(tcDoc.Phrases))
		for i, pd := range tcDoc.Phrases {
			tags := append(append([]string{}, tc.Tags...), pd.Tags...)
			if len(tags) == 0 {
				tags = nil
			}
			tc.Phrases = append(tc.Phrases, phrase.Phrase{Index: i, Body: pd.Body, Tags: tags})
		}
		s.TestCases = append(s.TestCases, tc)
	}

	return s, warnings, nil
}

type suiteDocument struct {
	Name             string                 `yaml:"name"`
	Env              map[string]interface{} `yaml:"env"`
	Shell            string                 `yaml:"shell"`
	WorkingDirectory string                 `yaml:"working-directory"`
	Steps            []stepDocument         `yaml:"steps"`
	TestCases        []testCaseDocument     `yaml:"test_cases"`
}

type stepDocument struct {
	Match string                 `yaml:"match"`
	Run   string                 `yaml:"run"`
	Env   map[string]interface{} `yaml:"env"`
}

type testCaseDocument struct {
	Title   string           `yaml:"title"`
	Tags    []string         `yaml:"tags"`
	Phrases []phraseDocument `yaml:"phrases"`
}

type phraseDocument struct {
	Body string   `yaml:"body"`
	Tags []string `yaml:"tags"`
}

// UnmarshalYAML accepts either a scalar body or a {body, tags} mapping.
func (p *phraseDocument) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&p.Body)
	case yaml.MappingNode:
		type plain phraseDocument
		var v plain
		if err := node.Decode(&v); err != nil {
			return err
		}
		*p = phraseDocument(v)
		return nil
	default:
		return fmt.Errorf("line %d: phrase must be a string or a mapping", node.Line)
	}
}

func convertEnv(input map[string]interface{}) map[string]string {
	if len(input) == 0 {
		return nil
	}
	out := make(map[string]string, len(input))
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = fmt.Sprint(input[k])
	}
	return out
}
