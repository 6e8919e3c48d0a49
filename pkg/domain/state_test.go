package domain_test

import (
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/domain"
)

func TestAsState(t *testing.T) {
	for _, s := range []domain.State{
		domain.Created, domain.Built, domain.Running, domain.Completed,
		domain.Error, domain.Stopped, domain.Uploading,
	} {
		actual, err := domain.AsState(string(s))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", s, err)
		}
		if actual != s {
			t.Errorf("expected %s, got %s", s, actual)
		}
	}

	if _, err := domain.AsState("running"); err == nil {
		t.Error("lower case state is accepted unexpectedly")
	}
}

func TestState_CanChangeTo(t *testing.T) {
	type When struct {
		from domain.State
		to   domain.State
	}

	theory := func(when When, then bool) func(*testing.T) {
		return func(t *testing.T) {
			if actual := when.from.CanChangeTo(when.to); actual != then {
				t.Errorf("%s -> %s: expected %v, got %v", when.from, when.to, then, actual)
			}
		}
	}

	t.Run("created -> built", theory(When{domain.Created, domain.Built}, true))
	t.Run("built -> running", theory(When{domain.Built, domain.Running}, true))
	t.Run("running -> completed", theory(When{domain.Running, domain.Completed}, true))
	t.Run("running -> error", theory(When{domain.Running, domain.Error}, true))
	t.Run("running -> stopped", theory(When{domain.Running, domain.Stopped}, true))
	t.Run("stopped -> running", theory(When{domain.Stopped, domain.Running}, true))
	t.Run("completed -> running", theory(When{domain.Completed, domain.Running}, false))
	t.Run("error -> completed", theory(When{domain.Error, domain.Completed}, false))
	t.Run("created -> completed", theory(When{domain.Created, domain.Completed}, false))
}

func TestState_Terminal(t *testing.T) {
	for s, then := range map[domain.State]bool{
		domain.Created:   false,
		domain.Built:     false,
		domain.Running:   false,
		domain.Completed: true,
		domain.Error:     true,
		domain.Stopped:   true,
	} {
		if actual := s.Terminal(); actual != then {
			t.Errorf("%s: expected %v, got %v", s, then, actual)
		}
	}
}
