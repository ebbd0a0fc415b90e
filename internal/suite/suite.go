package suite

import "github.com/bgricker/phrasereport/internal/phrase"

// Collection is the set of suites loaded from disk.
type Collection struct {
	Suites   []Suite   `json:"suites"`
	Warnings []Warning `json:"warnings"`
}

// Warning captures non-fatal issues encountered while parsing suites.
type Warning struct {
	Suite    string `json:"suite"`
	TestCase string `json:"test_case"`
	Message  string `json:"message"`
}

// Suite mirrors one suite file: step definitions shared by its test cases.
type Suite struct {
	Path             string            `json:"path"`
	Name             string            `json:"name"`
	Env              map[string]string `json:"env,omitempty"`
	Shell            string            `json:"shell,omitempty"`
	WorkingDirectory string            `json:"working_directory,omitempty"`
	Steps            []StepDefinition  `json:"steps"`
	TestCases        []TestCase        `json:"test_cases"`
}

// StepDefinition binds phrases matching Match to a shell command.
type StepDefinition struct {
	Match string            `json:"match"`
	Run   string            `json:"run"`
	Env   map[string]string `json:"env,omitempty"`
}

// TestCase is an ordered list of phrases under a title.
type TestCase struct {
	Title   string          `json:"title"`
	Tags    []string        `json:"tags,omitempty"`
	Phrases []phrase.Phrase `json:"phrases"`
}

// PhraseCount returns the number of phrases across all test cases.
func (s Suite) PhraseCount() int {
	var n int
	for _, tc := range s.TestCases {
		n += len(tc.Phrases)
	}
	return n
}
