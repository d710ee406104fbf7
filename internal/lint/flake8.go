package lint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-hclog"
	deferredregex "github.com/peterebden/go-deferred-regex"
)

// DefaultCommand is used when no linter command is configured.
const DefaultCommand = "flake8"

// outputFormat pins flake8's report lines so they can be parsed regardless of
// any format configured in setup.cfg/tox.ini.
const outputFormat = "%(path)s:%(row)d:%(col)d: %(code)s %(text)s"

var lineFormat = deferredregex.DeferredRegex{
	Re: `^(?P<file>.+?):(?P<line>[0-9]+):(?P<column>[0-9]+): (?P<code>[A-Za-z]+[0-9]*) ?(?P<message>.*)$`,
}

// Flake8 runs flake8 as a subprocess and streams its report.
type Flake8 struct {
	argv   []string
	logger hclog.Logger
}

// NewFlake8 parses command with shell quoting rules, so values such as
// "python3 -m flake8" work. An empty command means DefaultCommand.
func NewFlake8(command string, logger hclog.Logger) (*Flake8, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse linter command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("parse linter command %q: empty", command)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Flake8{argv: argv, logger: logger}, nil
}

// Args returns the full argument list (excluding the executable) for opts.
func (f *Flake8) Args(opts Options) []string {
	args := append([]string{}, f.argv[1:]...)
	args = append(args, "--format="+outputFormat)
	if len(opts.Select) > 0 {
		args = append(args, "--select="+strings.Join(opts.Select, ","))
	}
	if len(opts.Ignore) > 0 {
		args = append(args, "--ignore="+strings.Join(opts.Ignore, ","))
	}
	if opts.MaxLineLength > 0 {
		args = append(args, "--max-line-length="+strconv.Itoa(opts.MaxLineLength))
	}
	return append(args, opts.Target)
}

// maxUnparsedLines bounds the stdout kept for error messages.
const maxUnparsedLines = 20

// Violations runs flake8 over opts.Target. Exit status 1 with at least one
// parsed violation is the normal "violations found" result. Exit status 1 with
// nothing parsed is how flake8 and the Python interpreter report a crash, so it
// ends the sequence with an error, as does any other failure. The error carries
// flake8's stderr, or its unparsed stdout when stderr is empty.
func (f *Flake8) Violations(ctx context.Context, opts Options) iter.Seq2[Violation, error] {
	return func(yield func(Violation, error) bool) {
		cmd := exec.CommandContext(ctx, f.argv[0], f.Args(opts)...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			yield(Violation{}, fmt.Errorf("flake8: stdout pipe: %w", err))
			return
		}
		f.logger.Debug("running linter", "cmd", cmd.String())
		if err := cmd.Start(); err != nil {
			yield(Violation{}, fmt.Errorf("flake8: start %q: %w", f.argv[0], err))
			return
		}

		var (
			parsed   int
			unparsed []string
		)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			v, ok := ParseLine(line)
			if !ok {
				f.logger.Debug("skipping unparseable linter output", "line", line)
				if strings.TrimSpace(line) != "" && len(unparsed) < maxUnparsedLines {
					unparsed = append(unparsed, line)
				}
				continue
			}
			parsed++
			if !yield(v, nil) {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
				return
			}
		}
		scanErr := scanner.Err()
		if scanErr != nil {
			_, _ = io.Copy(io.Discard, stdout)
		}
		waitErr := cmd.Wait()
		if stderr.Len() > 0 {
			f.logger.Debug("linter stderr", "output", strings.TrimSpace(stderr.String()))
		}

		if scanErr != nil {
			yield(Violation{}, fmt.Errorf("flake8: read output: %w", scanErr))
			return
		}
		if waitErr != nil {
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) && exitErr.ExitCode() == 1 && parsed > 0 {
				return
			}
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.Join(unparsed, "\n")
			}
			if msg == "" {
				yield(Violation{}, fmt.Errorf("flake8: %w", waitErr))
				return
			}
			yield(Violation{}, fmt.Errorf("flake8: %w: %s", waitErr, msg))
		}
	}
}

// ParseLine parses one report line in outputFormat. Line and column are
// clamped to 1 since flake8 reports some file-level errors (E902) at row 0.
func ParseLine(line string) (Violation, bool) {
	matches := lineFormat.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if matches == nil {
		return Violation{}, false
	}
	var v Violation
	for i, name := range lineFormat.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		switch name {
		case "file":
			v.File = matches[i]
		case "line":
			v.Line, _ = strconv.Atoi(matches[i])
		case "column":
			v.Column, _ = strconv.Atoi(matches[i])
		case "code":
			v.Code = matches[i]
		case "message":
			v.Message = matches[i]
		}
	}
	if v.Line < 1 {
		v.Line = 1
	}
	if v.Column < 1 {
		v.Column = 1
	}
	return v, true
}
