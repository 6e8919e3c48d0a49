package python_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	testctx "github.com/scc-digitalhub/digitalhub-go/internal/testutils/context"
	"github.com/scc-digitalhub/digitalhub-go/pkg/runtimes/python"
)

type recorder struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (r *recorder) Debugf(string, ...interface{}) {}
func (r *recorder) Errorf(string, ...interface{}) {}

func (r *recorder) Infof(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}

func (r *recorder) Warnf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, fmt.Sprintf(format, args...))
}

func TestInterpreter(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available")
	}

	type When struct {
		script    string
		waitDelay time.Duration
	}
	type Then struct {
		infos []string
		warns []string
		err   bool
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "script.sh")
			if err := os.WriteFile(path, []byte(when.script), 0o644); err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithTimeout(testctx.For(t), 20*time.Second)
			defer cancel()

			rec := &recorder{}
			testee := python.Interpreter{Command: sh, Logger: rec, WaitDelay: when.waitDelay}
			err := testee.Execute(ctx, dir, path)
			if ctx.Err() != nil {
				t.Fatalf("execution does not end in time: %v", err)
			}
			if (err != nil) != then.err {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range then.infos {
				if !slices.Contains(rec.infos, want) {
					t.Errorf("missing info log %q in %d lines", want, len(rec.infos))
				}
			}
			for _, want := range then.warns {
				if !slices.ContainsFunc(rec.warns, func(w string) bool { return strings.Contains(w, want) }) {
					t.Errorf("missing warn log %q: %v", want, rec.warns)
				}
			}
		}
	}

	t.Run("short lines are logged as they are", theory(
		When{script: "echo hello\necho world\necho oops >&2\nprintf tail\n"},
		Then{
			infos: []string{"[python] hello", "[python] world", "[python] tail"},
			warns: []string{"[python] oops"},
		},
	))

	t.Run("lines longer than a scanner buffer do not block the script", theory(
		When{script: strings.Join([]string{
			"head -c 102400 /dev/zero | tr '\\000' x",
			"echo",
			"head -c 1048576 /dev/zero | tr '\\000' y",
			"echo",
			"echo done",
		}, "\n") + "\n"},
		Then{infos: []string{"[python] done"}},
	))

	t.Run("failing script is an error", theory(
		When{script: "echo broken >&2\nexit 3\n"},
		Then{warns: []string{"[python] broken"}, err: true},
	))

	t.Run("output held by a background process does not block", theory(
		When{script: "echo started\nsleep 10 &\n", waitDelay: 200 * time.Millisecond},
		Then{infos: []string{"[python] started"}, warns: []string{"left unread"}},
	))
}
