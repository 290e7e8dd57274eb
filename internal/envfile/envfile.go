// Package envfile appends KEY=VALUE assignments to the environment file a CI
// runner reads between steps (GITHUB_ENV on GitHub Actions).
package envfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultVariable names the environment variable holding the env file path.
const DefaultVariable = "GITHUB_ENV"

// ErrInvalidVar is returned for keys or values that cannot be written as a single line.
var ErrInvalidVar = errors.New("envfile: invalid variable")

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Var is one environment assignment.
type Var struct {
	Key   string
	Value string
}

func (v Var) String() string {
	return v.Key + "=" + v.Value
}

// Validate checks that v can be written as one KEY=VALUE line.
func (v Var) Validate() error {
	if !keyPattern.MatchString(v.Key) {
		return fmt.Errorf("%w: bad key %q", ErrInvalidVar, v.Key)
	}
	if strings.ContainsAny(v.Value, "\r\n") {
		return fmt.Errorf("%w: value of %s contains a newline", ErrInvalidVar, v.Key)
	}
	return nil
}

// Sink receives exported variables.
type Sink interface {
	Export(vars ...Var) error
}

// FileSink appends variables to an env file.
type FileSink struct {
	path string
}

// NewFileSink returns a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the env file path.
func (s *FileSink) Path() string {
	return s.path
}

// Export appends one line per variable in a single write. Nothing is written
// if any variable is invalid.
func (s *FileSink) Export(vars ...Var) error {
	data, err := render(vars)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open env file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write env file: %w", err)
	}
	return f.Close()
}

// WriterSink writes variables to an io.Writer.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Export writes one line per variable.
func (s *WriterSink) Export(vars ...Var) error {
	data, err := render(vars)
	if err != nil {
		return err
	}
	_, err = s.w.Write(data)
	return err
}

// MemorySink keeps exported variables in memory.
type MemorySink struct {
	mu   sync.Mutex
	vars []Var
}

// Export records vars after validating all of them.
func (s *MemorySink) Export(vars ...Var) error {
	if _, err := render(vars); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars = append(s.vars, vars...)
	return nil
}

// Vars returns everything exported so far.
func (s *MemorySink) Vars() []Var {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Var(nil), s.vars...)
}

// Lines returns everything exported so far as KEY=VALUE lines.
func (s *MemorySink) Lines() []string {
	vars := s.Vars()
	lines := make([]string, len(vars))
	for i, v := range vars {
		lines[i] = v.String()
	}
	return lines
}

// Read parses an env file. Later assignments of a key win.
func Read(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return env, nil
}

func render(vars []Var) ([]byte, error) {
	var b strings.Builder
	for _, v := range vars {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
