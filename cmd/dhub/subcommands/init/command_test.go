package init_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/common"
	subinit "github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/init"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/internal/commandline"
	"github.com/scc-digitalhub/digitalhub-go/cmd/dhub/subcommands/logger"
	"github.com/scc-digitalhub/digitalhub-go/pkg/configs"
	"github.com/scc-digitalhub/digitalhub-go/pkg/utils/try"
)

func TestTask(t *testing.T) {
	t.Run("it registers the profile and uses it in the directory", func(t *testing.T) {
		dir := t.TempDir()
		home := t.TempDir()
		cf := try.To(common.Flags(dir, common.WithHome(home))).OrFatal(t)
		cf.Profile = "test"

		cl, _, _ := commandline.New(
			"dhub init",
			subinit.Flags{User: "u", Password: "pw"},
			map[string][]string{subinit.ARG_ENDPOINT: {"https://core.example.com"}},
		)
		if err := subinit.Task(dir)(context.Background(), logger.Null(), cf, cl, nil); err != nil {
			t.Fatal(err)
		}

		content := try.To(os.ReadFile(filepath.Join(dir, common.ProfileFile))).OrFatal(t)
		if strings.TrimSpace(string(content)) != "test" {
			t.Errorf("unexpected .dhprofile: %s", content)
		}

		detected := try.To(common.Flags(filepath.Join(dir), common.WithHome(home))).OrFatal(t)
		if detected.Profile != "test" {
			t.Errorf("profile is not detected: %s", detected.Profile)
		}
		creds := try.To(common.Credentials(detected)).OrFatal(t)
		if creds.Endpoint != "https://core.example.com" || creds.User != "u" || creds.Password != "pw" {
			t.Errorf("unexpected credentials: %+v", creds)
		}
		if creds.AuthType() != configs.AuthBasic {
			t.Errorf("unexpected auth type: %s", creds.AuthType())
		}
	})

	t.Run("it overwrites the profile keeping others", func(t *testing.T) {
		dir := t.TempDir()
		store := filepath.Join(t.TempDir(), "profiles.yaml")
		ps := configs.ProfileStore{
			"other": &configs.Credentials{Endpoint: "https://other.example.com"},
			"test":  &configs.Credentials{Endpoint: "https://old.example.com"},
		}
		if err := ps.Save(store); err != nil {
			t.Fatal(err)
		}
		cf := common.CommonFlags{Profile: "test", ProfileStore: store}

		cl, _, _ := commandline.New(
			"dhub init",
			subinit.Flags{AccessToken: "tok"},
			map[string][]string{subinit.ARG_ENDPOINT: {"https://core.example.com"}},
		)
		if err := subinit.Task(dir)(context.Background(), logger.Null(), cf, cl, nil); err != nil {
			t.Fatal(err)
		}

		saved := try.To(configs.LoadProfileStore(store)).OrFatal(t)
		if got := try.To(saved.Get("test")).OrFatal(t); got.Endpoint != "https://core.example.com" || got.AccessToken != "tok" {
			t.Errorf("profile is not overwritten: %+v", got)
		}
		if got := try.To(saved.Get("other")).OrFatal(t); got.Endpoint != "https://other.example.com" {
			t.Errorf("other profile is changed: %+v", got)
		}
	})

	t.Run("it rejects invalid endpoint", func(t *testing.T) {
		dir := t.TempDir()
		store := filepath.Join(t.TempDir(), "profiles.yaml")
		cf := common.CommonFlags{Profile: "test", ProfileStore: store}

		cl, _, _ := commandline.New(
			"dhub init",
			subinit.Flags{},
			map[string][]string{subinit.ARG_ENDPOINT: {"://not a url"}},
		)
		if err := subinit.Task(dir)(context.Background(), logger.Null(), cf, cl, nil); err == nil {
			t.Fatal("expected error")
		}
		if _, err := os.Stat(store); !os.IsNotExist(err) {
			t.Errorf("profile store should not be created: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, common.ProfileFile)); !os.IsNotExist(err) {
			t.Errorf(".dhprofile should not be created: %v", err)
		}
	})
}
