package source

import (
	"runtime"
	"strings"
)

var platformPatterns = map[string][]string{
	"windows": {"windows", "win", ".exe", "msvc", "mingw"},
	"darwin":  {"macos", "mac", "darwin", "osx"},
	"linux":   {"linux", "ubuntu", "debian", "centos"},
}

var sourcePatterns = []string{"src", "source"}

// NormalizePlatform maps a platform hint onto "windows", "darwin" or "linux".
// An empty hint means the platform this binary was built for.
func NormalizePlatform(hint string) string {
	p := strings.ToLower(strings.TrimSpace(hint))
	if p == "" {
		p = runtime.GOOS
	}
	switch p {
	case "windows", "win":
		return "windows"
	case "darwin", "macos", "mac", "osx":
		return "darwin"
	default:
		return "linux"
	}
}

// PlatformPatterns returns the ordered substring patterns used to pick a
// release asset: platform tokens first, then generic source-archive tokens.
func PlatformPatterns(platform string) []string {
	own := platformPatterns[NormalizePlatform(platform)]
	patterns := make([]string, 0, len(own)+len(sourcePatterns))
	patterns = append(patterns, own...)
	return append(patterns, sourcePatterns...)
}

// SelectAsset picks one asset URL for the platform. For each pattern in
// priority order the first candidate containing it (case-sensitive) wins; if
// nothing matches, the first candidate is returned. It reports false only for
// an empty candidate list.
func SelectAsset(candidates []string, platform string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	for _, pattern := range PlatformPatterns(platform) {
		for _, candidate := range candidates {
			if strings.Contains(candidate, pattern) {
				return candidate, true
			}
		}
	}
	return candidates[0], true
}
