package server_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/configs/server"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

func TestUnmarshal(t *testing.T) {
	type When struct {
		yaml string
	}
	type Then struct {
		config server.Config
		err    error
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			actual, err := server.Unmarshal([]byte(when.yaml))
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if *actual != then.config {
				t.Errorf("unexpected config:\n===actual===\n%+v\n===expected===\n%+v", *actual, then.config)
			}
		}
	}

	t.Run("full", theory(
		When{yaml: `
port: "9090"
loglevel: debug
seed: /seed
pageSize: 10
`},
		Then{config: server.Config{Port: "9090", LogLevel: "debug", Seed: "/seed", PageSize: 10}},
	))
	t.Run("defaults", theory(
		When{yaml: `seed: ./projects`},
		Then{config: server.Config{Port: "8080", LogLevel: "info", Seed: "./projects", PageSize: 25}},
	))
	t.Run("port is not a number", theory(
		When{yaml: `port: http`},
		Then{err: server.ErrInvalidConfig},
	))
	t.Run("page size is not positive", theory(
		When{yaml: `pageSize: 0`},
		Then{err: server.ErrInvalidConfig},
	))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"8081\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	conf := try.To(server.Load(path)).OrFatal(t)
	if conf.Port != "8081" || conf.PageSize != server.DefaultPageSize {
		t.Errorf("unexpected config: %+v", conf)
	}

	if _, err := server.Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("unexpected error: %v", err)
	}
}
