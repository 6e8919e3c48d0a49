package python

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	xe "github.com/scc-digitalhub/digitalhub-go/pkg/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/logger"
)

// Executor executes a python script.
type Executor interface {
	// Execute runs the script at path, in the working directory dir.
	//
	// It returns error when the script exits with non-zero status.
	Execute(ctx context.Context, dir string, path string) error
}

// Interpreter is an Executor invoking a python interpreter as a subprocess.
type Interpreter struct {
	// command of the interpreter. "python3" when empty.
	Command string

	// stdout and stderr of the interpreter are logged here.
	Logger logger.Logger

	// WaitDelay bounds how long output is still collected after the
	// interpreter exits or ctx is done. DefaultWaitDelay when zero.
	WaitDelay time.Duration
}

// DefaultWaitDelay is the WaitDelay of Interpreter when it is not set.
const DefaultWaitDelay = 5 * time.Second

// maxLogLine is the length where a line of output is cut when logged.
const maxLogLine = 4 * 1024

var _ Executor = Interpreter{}

func (i Interpreter) Execute(ctx context.Context, dir string, path string) error {
	command := i.Command
	if command == "" {
		command = "python3"
	}
	log := i.Logger
	if log == nil {
		log = logger.Null()
	}

	cmd := exec.CommandContext(ctx, command, path)
	cmd.Dir = dir
	cmd.WaitDelay = i.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	stdout := &lineWriter{logf: log.Infof}
	stderr := &lineWriter{logf: log.Warnf}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if errors.Is(err, exec.ErrWaitDelay) {
		log.Warnf("output of %s is left unread: it is still held by another process", path)
		return nil
	}
	if err != nil {
		return xe.WrapWithNote("python execution failed", err)
	}
	return nil
}

// lineWriter logs what is written to it line by line.
//
// It never fails writing, so the output of the subprocess is always drained.
type lineWriter struct {
	logf func(string, ...interface{})

	mu  sync.Mutex
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		n := bytes.IndexByte(w.buf, '\n')
		if n < 0 {
			break
		}
		w.log(w.buf[:n])
		w.buf = w.buf[n+1:]
	}
	if maxLogLine < len(w.buf) {
		// partial line too long to keep; log what we have so far.
		w.log(w.buf)
		w.buf = w.buf[:0]
	}
	return len(p), nil
}

// Flush logs the last line, if it is not terminated with a newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) == 0 {
		return
	}
	w.log(w.buf)
	w.buf = nil
}

func (w *lineWriter) log(line []byte) {
	if maxLogLine < len(line) {
		w.logf("[python] %s [... %d bytes more]", line[:maxLogLine], len(line)-maxLogLine)
		return
	}
	w.logf("[python] %s", line)
}
