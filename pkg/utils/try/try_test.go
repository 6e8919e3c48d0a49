package try_test

import (
	"errors"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

type fataler struct {
	called []any
}

func (f *fataler) Fatal(v ...any) {
	f.called = append(f.called, v...)
}

func TestTo(t *testing.T) {
	t.Run("ok gives value", func(t *testing.T) {
		f := &fataler{}
		if v := try.To(42, nil).OrFatal(f); v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
		if len(f.called) != 0 {
			t.Errorf("Fatal is called: %v", f.called)
		}
		if v := try.To(42, nil).OrDefault(1); v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	})

	t.Run("ng calls Fatal", func(t *testing.T) {
		f := &fataler{}
		expectedErr := errors.New("fake")
		if v := try.To(42, expectedErr).OrFatal(f); v != 0 {
			t.Errorf("expected zero value, got %d", v)
		}
		if len(f.called) != 1 || f.called[0] != expectedErr {
			t.Errorf("Fatal is not called with error: %v", f.called)
		}
		if v := try.To(42, expectedErr).OrDefault(1); v != 1 {
			t.Errorf("expected default, got %d", v)
		}
	})

	t.Run("Map converts ok only", func(t *testing.T) {
		double := func(i int) int { return i * 2 }
		if v, err := try.Map(try.To(21, nil), double).Get(); v != 42 || err != nil {
			t.Errorf("unexpected: %d, %v", v, err)
		}
		expectedErr := errors.New("fake")
		if _, err := try.Map(try.To(21, expectedErr), double).Get(); !errors.Is(err, expectedErr) {
			t.Errorf("unexpected: %v", err)
		}
	})
}
