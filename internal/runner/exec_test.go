package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/bgricker/phrasereport/internal/aggregator"
	"github.com/bgricker/phrasereport/internal/phrase"
	"github.com/bgricker/phrasereport/internal/report"
	"github.com/bgricker/phrasereport/internal/suite"
)

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("executor tests require a POSIX shell")
	}
}

func sampleSuite(steps ...suite.StepDefinition) suite.Suite {
	return suite.Suite{Path: "checkout.yml", Name: "checkout", Steps: steps}
}

func newExecutor(t *testing.T, s suite.Suite, opts Options) *Executor {
	t.Helper()
	if opts.Root == "" {
		opts.Root = t.TempDir()
	}
	e, err := New(s, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestExecutorPass(t *testing.T) {
	requirePOSIX(t)
	stdout := &bytes.Buffer{}
	e := newExecutor(t, sampleSuite(suite.StepDefinition{Match: "given", Run: "echo hi"}), Options{Stdout: stdout, Verbose: true})

	res, err := e.Execute(context.Background(), phrase.Phrase{Body: "given cart has item"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Passed {
		t.Fatalf("expected pass, got %+v", res)
	}
	if strings.TrimSpace(stdout.String()) != "hi" {
		t.Fatalf("expected verbose stdout 'hi', got %q", stdout.String())
	}
}

func TestExecutorFailureReasonFromStderr(t *testing.T) {
	requirePOSIX(t)
	e := newExecutor(t, sampleSuite(suite.StepDefinition{Match: "pays", Run: "echo 'payment gateway timeout' >&2; exit 3"}), Options{})

	res, err := e.Execute(context.Background(), phrase.Phrase{Index: 1, Body: "when user pays"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Passed || res.Reason != "payment gateway timeout" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExecutorInvalidUTF8StderrStillFails(t *testing.T) {
	requirePOSIX(t)
	e := newExecutor(t, sampleSuite(
		suite.StepDefinition{Match: "given", Run: "true"},
		suite.StepDefinition{Match: "pays", Run: `printf 'bad \377 out\n' >&2; exit 1`},
	), Options{})

	res, err := e.Execute(context.Background(), phrase.Phrase{Index: 1, Body: "when user pays"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Passed || res.Reason != "bad \uFFFD out" {
		t.Fatalf("unexpected result: %+v", res)
	}

	r, err := aggregator.New().Run(context.Background(), "checkout",
		phrase.Indexed("given cart has item", "when user pays", "then order confirmed"), nil, e)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Status != report.StatusFailed || r.FailingPhraseIndex != 1 || r.PhrasesSkippedDueToFailure != 1 {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestExecutorFailureReasonFallsBackToExitStatus(t *testing.T) {
	requirePOSIX(t)
	e := newExecutor(t, sampleSuite(suite.StepDefinition{Match: "pays", Run: "exit 4"}), Options{})

	res, err := e.Execute(context.Background(), phrase.Phrase{Body: "when user pays"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Reason != "exit status 4" {
		t.Fatalf("expected exit status reason, got %q", res.Reason)
	}
}

func TestExecutorTailCapture(t *testing.T) {
	requirePOSIX(t)
	e := newExecutor(t, sampleSuite(suite.StepDefinition{Match: "noisy", Run: "printf '1\\n2\\n3\\n' >&2; exit 1"}), Options{TailLines: 2})

	res, err := e.Execute(context.Background(), phrase.Phrase{Body: "noisy step"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Reason != "2\n3" {
		t.Fatalf("expected tail '2\\n3', got %q", res.Reason)
	}
}

func TestExecutorEnvMerge(t *testing.T) {
	requirePOSIX(t)
	s := sampleSuite(suite.StepDefinition{
		Match: `/^given cart has (\d+) (\w+)$/`,
		Run:   `test "$SUITE_VAR-$STEP_VAR-$PHRASE_ARG_1-$PHRASE_ARG_2-$PHRASE_INDEX" = "suite-step-2-items-5" || { echo "$SUITE_VAR-$STEP_VAR-$PHRASE_ARG_1-$PHRASE_ARG_2-$PHRASE_INDEX" >&2; exit 1; }`,
		Env:   map[string]string{"STEP_VAR": "step"},
	})
	s.Env = map[string]string{"SUITE_VAR": "suite"}
	e := newExecutor(t, s, Options{})

	res, err := e.Execute(context.Background(), phrase.Phrase{Index: 5, Body: "given cart has 2 items"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Passed {
		t.Fatalf("expected env to be exported, got %+v", res)
	}
}

func TestExecutorFirstMatchWins(t *testing.T) {
	requirePOSIX(t)
	e := newExecutor(t, sampleSuite(
		suite.StepDefinition{Match: "user", Run: "exit 0"},
		suite.StepDefinition{Match: "pays", Run: "exit 1"},
	), Options{})

	res, err := e.Execute(context.Background(), phrase.Phrase{Body: "when user pays"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Passed {
		t.Fatalf("expected first definition to run, got %+v", res)
	}
}

func TestExecutorEmptyRunPasses(t *testing.T) {
	e := newExecutor(t, sampleSuite(suite.StepDefinition{Match: "noop"}), Options{})

	res, err := e.Execute(context.Background(), phrase.Phrase{Body: "noop"})
	if err != nil || !res.Passed {
		t.Fatalf("expected pass, got %+v, %v", res, err)
	}
}

func TestExecutorUndefinedStep(t *testing.T) {
	e := newExecutor(t, sampleSuite(suite.StepDefinition{Match: "given", Run: "true"}), Options{})

	_, err := e.Execute(context.Background(), phrase.Phrase{Body: "then order confirmed"})
	if !errors.Is(err, ErrUndefinedStep) {
		t.Fatalf("expected ErrUndefinedStep, got %v", err)
	}
}

func TestExecutorMissingWorkingDirectory(t *testing.T) {
	s := sampleSuite(suite.StepDefinition{Match: "given", Run: "true"})
	s.WorkingDirectory = "missing"
	e := newExecutor(t, s, Options{})

	_, err := e.Execute(context.Background(), phrase.Phrase{Body: "given"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected working directory error, got %v", err)
	}
}

func TestExecutorWorkingDirectory(t *testing.T) {
	requirePOSIX(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir subdir: %v", err)
	}
	s := sampleSuite(suite.StepDefinition{Match: "where", Run: `case "$(pwd)" in */subdir) exit 0;; *) pwd >&2; exit 1;; esac`})
	s.WorkingDirectory = "subdir"
	e := newExecutor(t, s, Options{Root: root})

	res, err := e.Execute(context.Background(), phrase.Phrase{Body: "where am i"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Passed {
		t.Fatalf("expected step to run in subdir, got %+v", res)
	}
}

func TestExecutorMissingShellIsFault(t *testing.T) {
	requirePOSIX(t)
	s := sampleSuite(suite.StepDefinition{Match: "given", Run: "true"})
	s.Shell = "/nonexistent/shell"
	e := newExecutor(t, s, Options{})

	_, err := e.Execute(context.Background(), phrase.Phrase{Body: "given"})
	if err == nil {
		t.Fatalf("expected start failure to surface as an error")
	}
}

func TestExecutorTimeoutIsFailure(t *testing.T) {
	requirePOSIX(t)
	e := newExecutor(t, sampleSuite(suite.StepDefinition{Match: "slow", Run: "sleep 5"}), Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	res, err := e.Execute(context.Background(), phrase.Phrase{Body: "slow step"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Passed || !strings.Contains(res.Reason, "timed out after 50ms") {
		t.Fatalf("expected timeout failure, got %+v", res)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatalf("timeout did not stop the step")
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	if _, err := New(sampleSuite(suite.StepDefinition{Match: "/(/"}), Options{}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestCommandArgs(t *testing.T) {
	cases := []struct {
		shell string
		want  []string
	}{
		{"bash", []string{"bash", "-c", "echo"}},
		{"bash -e", []string{"bash", "-e", "-c", "echo"}},
		{"pwsh", []string{"pwsh", "-Command", "echo"}},
		{"python3", []string{"python3", "-c", "echo"}},
		{"node", []string{"node", "echo"}},
	}
	for _, tc := range cases {
		got := commandArgs(tc.shell, "echo")
		if strings.Join(got, " ") != strings.Join(tc.want, " ") {
			t.Fatalf("commandArgs(%q) = %v, want %v", tc.shell, got, tc.want)
		}
	}
}

func TestMergeEnvOverlaysInOrder(t *testing.T) {
	got := mergeEnv([]string{"A=base", "B=base"}, map[string]string{"B": "suite"}, map[string]string{"C": "step"})
	want := []string{"A=base", "B=suite", "C=step"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("mergeEnv = %v, want %v", got, want)
	}
}
