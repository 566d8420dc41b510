package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetFullVersion(t *testing.T) {
	t.Parallel()

	got := GetFullVersion()
	for _, part := range []string{GetVersion(), "commit: " + GetCommit(), "built: " + GetDate(), runtime.Version()} {
		if !strings.Contains(got, part) {
			t.Errorf("GetFullVersion() = %q, missing %q", got, part)
		}
	}
}
