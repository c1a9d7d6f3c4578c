// Package version holds build metadata injected via -ldflags.
package version

import (
	"runtime/debug"
	"strings"
)

// Build metadata. Overridden at link time:
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/lulcflow/pkg/version.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const vcsRevisionKey = "vcs.revision"

// shortCommitLen is the length of the abbreviated commit hash.
const shortCommitLen = 12

// InitBinaryVersion fills Version and Commit from the embedded build info when
// they were not set at link time.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	if Commit != "none" {
		return
	}

	for _, setting := range info.Settings {
		if setting.Key == vcsRevisionKey {
			Commit = shorten(setting.Value)
		}
	}
}

func shorten(rev string) string {
	rev = strings.TrimSpace(rev)
	if len(rev) > shortCommitLen {
		return rev[:shortCommitLen]
	}

	return rev
}
