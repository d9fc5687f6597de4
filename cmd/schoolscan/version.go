package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

const unknown = "unknown"

// vcsInfo is what the Go toolchain stamped into the binary. It is the
// fallback for builds made with go install rather than the release script.
type vcsInfo struct {
	module   string
	revision string
	time     string
}

var readVCSInfo = sync.OnceValue(func() vcsInfo {
	info := vcsInfo{revision: unknown, time: unknown}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.module = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.revision = s.Value
		case "vcs.time":
			info.time = s.Value
		}
	}
	return info
})

func getVersion() string {
	switch {
	case version != "":
		return version
	case readVCSInfo().module != "":
		return readVCSInfo().module
	default:
		return "(devel)"
	}
}

// getCommit returns at most seven characters of the revision.
func getCommit() string {
	rev := commit
	if rev == "" {
		rev = readVCSInfo().revision
	}
	if rev != unknown && len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func getDate() string {
	if date != "" {
		return date
	}
	return readVCSInfo().time
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "schoolscan version %s\n  commit: %s\n  built:  %s\n  go:     %s\n",
				getVersion(), getCommit(), getDate(), runtime.Version())
		},
	}
}
