// Package compileinfo reports the VCS state a binary was built from.
package compileinfo

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
)

type CompileInfo struct {
	Package    string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	dirty := ""
	if c.Modified {
		dirty = " (with uncommitted changes)"
	}
	return fmt.Sprintf("%s %s, %s, commit %s from %s%s", c.Package, c.Version, c.GoVersion, c.Commit, c.CommitTime, dirty)
}

// LogValue lets a CompileInfo be passed directly as a slog attribute.
func (c CompileInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("package", c.Package),
		slog.String("version", c.Version),
		slog.String("go", c.GoVersion),
		slog.String("commit", c.Commit),
		slog.String("commit_time", c.CommitTime),
		slog.Bool("modified", c.Modified),
	)
}

// Get reads the build information embedded by the Go toolchain. Fields are
// empty when it is unavailable, as under go run.
func Get() CompileInfo {
	var out CompileInfo

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	out.GoVersion = bi.GoVersion
	out.Package = bi.Path
	out.Version = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}
	return out
}

func PrintToStdErr() {
	fmt.Fprintln(os.Stderr, Get())
}
