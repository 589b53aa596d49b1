package daemon

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterEnv returns the entries of environ whose variable name matches one of
// the keep patterns. The result is never nil.
func FilterEnv(environ, keep []string) []string {
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		for _, pattern := range keep {
			if ok, err := doublestar.Match(pattern, name); err == nil && ok {
				out = append(out, kv)
				break
			}
		}
	}
	return out
}
