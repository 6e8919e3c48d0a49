package configs_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/pkg/configs"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

func TestFromEnv(t *testing.T) {
	unset := func(t *testing.T) {
		for _, k := range []string{
			configs.EnvEndpoint, configs.EnvEndpointLegacy, configs.EnvIssuer, configs.EnvUser,
			configs.EnvPassword, configs.EnvAccessToken, configs.EnvRefreshToken, configs.EnvClientID,
		} {
			t.Setenv(k, "")
		}
	}

	t.Run("DHCORE_ENDPOINT wins", func(t *testing.T) {
		unset(t)
		t.Setenv(configs.EnvEndpoint, "https://core.example.com")
		t.Setenv(configs.EnvEndpointLegacy, "https://legacy.example.com")
		if c := configs.FromEnv(); c.Endpoint != "https://core.example.com" {
			t.Errorf("unexpected endpoint: %s", c.Endpoint)
		}
	})

	t.Run("legacy endpoint", func(t *testing.T) {
		unset(t)
		t.Setenv(configs.EnvEndpointLegacy, "https://legacy.example.com")
		if c := configs.FromEnv(); c.Endpoint != "https://legacy.example.com" {
			t.Errorf("unexpected endpoint: %s", c.Endpoint)
		}
	})

	t.Run("auth type", func(t *testing.T) {
		unset(t)
		t.Setenv(configs.EnvUser, "u")
		t.Setenv(configs.EnvPassword, "pw")
		if a := configs.FromEnv().AuthType(); a != configs.AuthBasic {
			t.Errorf("unexpected auth type: %s", a)
		}
		t.Setenv(configs.EnvAccessToken, "tok")
		if a := configs.FromEnv().AuthType(); a != configs.AuthOAuth2 {
			t.Errorf("unexpected auth type: %s", a)
		}
	})
}

func TestVerify(t *testing.T) {
	for name, tc := range map[string]struct {
		creds configs.Credentials
		valid bool
	}{
		"valid":             {creds: configs.Credentials{Endpoint: "http://localhost:8080"}, valid: true},
		"no endpoint":       {creds: configs.Credentials{}},
		"ftp endpoint":      {creds: configs.Credentials{Endpoint: "ftp://example.com"}},
		"relative endpoint": {creds: configs.Credentials{Endpoint: "example.com"}},
		"bad issuer": {
			creds: configs.Credentials{Endpoint: "https://example.com", Issuer: "issuer"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := tc.creds.Verify()
			if tc.valid {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, dherr.ErrConfiguration) || !errors.Is(err, dherr.ErrBackend) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestMergeAndSanitize(t *testing.T) {
	c := configs.Credentials{Endpoint: " https://example.com/ "}.
		Merge(configs.Credentials{Endpoint: "http://other", User: "u"}).
		Sanitize()
	if c.Endpoint != "https://example.com" || c.User != "u" {
		t.Errorf("unexpected: %+v", c)
	}
	if (configs.Credentials{}).Username() != configs.FallbackUser {
		t.Error("fallback user is not used")
	}
}

func TestProfileStore(t *testing.T) {
	t.Run("unmarshalling works well", func(t *testing.T) {
		ps := try.To(configs.Unmarshall([]byte(`
default:
    endpoint: "https://core.example.com"
    user: someone
    access_token: tok
`))).OrFatal(t)
		c := try.To(ps.Get(configs.DefaultProfile)).OrFatal(t)
		if c.Endpoint != "https://core.example.com" || c.User != "someone" || c.AccessToken != "tok" {
			t.Errorf("unexpected profile: %+v", c)
		}
		if _, err := ps.Get("other"); !errors.Is(err, configs.ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := configs.LoadProfileStore(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, configs.ErrProfileStoreNotFound) {
			t.Errorf("expected ErrProfileStoreNotFound, got %v", err)
		}
	})

	t.Run("saved store can be loaded and is private", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "profiles.yaml")
		ps := configs.ProfileStore{
			"default": {Endpoint: "https://core.example.com", RefreshToken: "rt"},
		}
		if err := ps.Save(path); err != nil {
			t.Fatal(err)
		}

		// saving again overwrites.
		ps["second"] = &configs.Credentials{Endpoint: "http://localhost"}
		if err := ps.Save(path); err != nil {
			t.Fatal(err)
		}

		loaded := try.To(configs.LoadProfileStore(path)).OrFatal(t)
		if len(loaded) != 2 || loaded["default"].RefreshToken != "rt" {
			t.Errorf("unexpected store: %+v", loaded)
		}
		if _, err := os.Stat(path + ".backup"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("backup remains: %v", err)
		}
		if runtime.GOOS != "windows" {
			info := try.To(os.Stat(path)).OrFatal(t)
			if info.Mode().Perm() != 0o600 {
				t.Errorf("unexpected permission: %v", info.Mode().Perm())
			}
		}
	})
}
