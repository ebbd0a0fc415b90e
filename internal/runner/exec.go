package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bgricker/phrasereport/internal/aggregator"
	"github.com/bgricker/phrasereport/internal/phrase"
	"github.com/bgricker/phrasereport/internal/suite"
	"github.com/bgricker/phrasereport/internal/suite/filter"
)

// ErrUndefinedStep is returned when no step definition matches a phrase.
var ErrUndefinedStep = errors.New("undefined step")

// Options configure how the executor runs step commands.
type Options struct {
	Root      string
	Stdout    io.Writer
	Stderr    io.Writer
	Verbose   bool
	Shell     string
	TailLines int
	Timeout   time.Duration
	Env       []string
}

type compiledStep struct {
	pattern filter.Pattern
	def     suite.StepDefinition
}

// Executor dispatches a phrase to the first matching step definition of a
// suite and runs its command. It implements aggregator.Executor.
type Executor struct {
	opts  Options
	suite suite.Suite
	steps []compiledStep
}

var _ aggregator.Executor = (*Executor)(nil)

// New compiles the suite's step definitions into an Executor.
func New(s suite.Suite, opts Options) (*Executor, error) {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if s.Shell != "" {
		opts.Shell = s.Shell
	}

	steps := make([]compiledStep, 0, len(s.Steps))
	for _, def := range s.Steps {
		p, err := filter.CompileOne(strings.TrimSpace(def.Match))
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", s.Path, err)
		}
		steps = append(steps, compiledStep{pattern: p, def: def})
	}
	return &Executor{opts: opts, suite: s, steps: steps}, nil
}

// Execute runs the step behind p. A non-zero exit or a timeout is a step
// failure; an undefined step or a command that cannot be started is returned
// as an error.
func (e *Executor) Execute(ctx context.Context, p phrase.Phrase) (aggregator.StepResult, error) {
	step, args, ok := e.lookup(p.Body)
	if !ok {
		return aggregator.StepResult{}, fmt.Errorf("%w: %q", ErrUndefinedStep, p.Body)
	}
	if strings.TrimSpace(step.Run) == "" {
		return aggregator.Pass(), nil
	}

	workingDir, err := resolveWorkingDirectory(e.opts.Root, e.suite.WorkingDirectory)
	if err != nil {
		return aggregator.StepResult{}, err
	}
	cmdArgs := commandArgs(e.opts.Shell, step.Run)

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)
	cmd.Dir = workingDir
	cmd.Env = mergeEnv(e.opts.Env, e.suite.Env, step.Env, phraseEnv(p, args))
	// grandchildren may hold the output pipes open after the shell is killed
	cmd.WaitDelay = time.Second

	var stdoutBuf, stderrBuf strings.Builder
	if e.opts.Verbose {
		cmd.Stdout = io.MultiWriter(e.opts.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(e.opts.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err = cmd.Run()
	if err == nil {
		return aggregator.Pass(), nil
	}
	if e.opts.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return aggregator.Fail(fmt.Sprintf("step timed out after %s", e.opts.Timeout)), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		reason := strings.ToValidUTF8(tailLines(stderrBuf.String(), e.opts.TailLines), "\uFFFD")
		if reason == "" {
			reason = fmt.Sprintf("exit status %d", exitCode(err))
		}
		return aggregator.Fail(reason), nil
	}
	return aggregator.StepResult{}, fmt.Errorf("run step %q: %w", step.Match, err)
}

func (e *Executor) lookup(body string) (suite.StepDefinition, []string, bool) {
	for _, s := range e.steps {
		if args, ok := s.pattern.Submatch(body); ok {
			return s.def, args, true
		}
	}
	return suite.StepDefinition{}, nil, false
}

func phraseEnv(p phrase.Phrase, args []string) map[string]string {
	env := map[string]string{
		"PHRASE_BODY":  p.Body,
		"PHRASE_INDEX": strconv.Itoa(p.Index),
	}
	for i, arg := range args {
		env["PHRASE_ARG_"+strconv.Itoa(i+1)] = arg
	}
	return env
}

func commandArgs(shellSpec string, script string) []string {
	shellSpec = strings.TrimSpace(shellSpec)
	if shellSpec == "" {
		if runtime.GOOS == "windows" {
			return []string{"cmd", "/C", script}
		}
		return []string{"sh", "-c", script}
	}

	fields := strings.Fields(shellSpec)
	shell := fields[0]
	args := append([]string{}, fields[1:]...)
	base := strings.ToLower(filepath.Base(shell))

	switch base {
	case "bash", "zsh", "ksh", "sh", "dash":
		args = append(args, "-c", script)
	case "cmd", "cmd.exe":
		args = append(args, "/C", script)
	case "pwsh", "powershell", "powershell.exe":
		args = append(args, "-Command", script)
	case "python", "python3", "python.exe":
		args = append(args, "-c", script)
	default:
		args = append(args, script)
	}
	return append([]string{shell}, args...)
}

func resolveWorkingDirectory(root, dir string) (string, error) {
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return root, nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("working directory %q not found", dir)
		}
		return "", fmt.Errorf("stat working directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %q is not a directory", dir)
	}
	return dir, nil
}

func mergeEnv(base []string, overlays ...map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlays)*4)
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	lines := strings.Split(input, "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
