package common

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/scc-digitalhub/digitalhub-go/pkg/configs"
)

// ProfileFile names the profile to be used in a directory and its descendants.
const ProfileFile = ".dhprofile"

type CommonFlags struct {
	Profile      string `flag:"profile" help:"profile name to use"`
	ProfileStore string `flag:"profile-store" help:"path to profile store file"`
	LogLevel     string `flag:"loglevel" help:"debug|info|warn|error|off"`
}

type commonFlagDetection struct {
	home string
}

type CommonFlagDetectionOption func(*commonFlagDetection) *commonFlagDetection

func WithHome(home string) CommonFlagDetectionOption {
	return func(opt *commonFlagDetection) *commonFlagDetection {
		opt.home = home
		return opt
	}
}

// Flags detects default values of common flags.
//
// The profile is the first line of .dhprofile in from or the nearest ancestor of it.
// Without .dhprofile, it is configs.DefaultProfile.
// The profile store is ~/.dhcore/profiles.yaml.
func Flags(from string, opt ...CommonFlagDetectionOption) (CommonFlags, error) {
	detparam := commonFlagDetection{}
	for _, o := range opt {
		detparam = *o(&detparam)
	}

	store := ""
	if detparam.home != "" {
		store = filepath.Join(detparam.home, ".dhcore", "profiles.yaml")
	} else if s, err := configs.DefaultProfileStorePath(); err == nil {
		store = s
	}

	if _from, err := filepath.Abs(from); err == nil {
		from = _from
	}

	profile := configs.DefaultProfile
	for searchpath := from; ; {
		candidate := filepath.Join(searchpath, ProfileFile)
		if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
			content, err := os.ReadFile(candidate)
			if err != nil {
				return CommonFlags{}, err
			}
			if p := strings.TrimSpace(strings.SplitN(string(content), "\n", 2)[0]); p != "" {
				profile = p
			}
			break
		}

		next := filepath.Dir(searchpath)
		if next == searchpath {
			break
		}
		searchpath = next
	}

	return CommonFlags{
		Profile:      profile,
		ProfileStore: store,
		LogLevel:     "warn",
	}, nil
}
