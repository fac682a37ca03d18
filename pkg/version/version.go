package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	Version   = "(dev)"
	Revision  = ""
	buildInfo = debug.BuildInfo{}
)

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		buildInfo = *bi
		if len(bi.Main.Version) > 0 {
			Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				Revision = s.Value[:7]
			}
		}
	}
}

// GetMore returns a one-line version string, or the module list when mod is set.
func GetMore(mod bool) string {
	if mod {
		mod := buildInfo.String()
		if len(mod) > 0 {
			return fmt.Sprintf("\t%s\n", strings.ReplaceAll(mod[:len(mod)-1], "\n", "\n\t"))
		}
	}
	v := Version
	if Revision != "" {
		v += "+" + Revision
	}
	return fmt.Sprintf("version %s %s %s/%s\n", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
