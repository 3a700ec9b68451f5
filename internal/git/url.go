package git

import (
	"net/url"
	"regexp"
	"strings"
)

const gitSuffix = ".git"

// scpLikeURL matches SSH remotes in scp syntax, e.g. git@github.com:owner/repo
var scpLikeURL = regexp.MustCompile(`^[\w.-]+@([\w.-]+):/?([^/].*)$`)

// NormalizeRemoteURL rewrites a remote reference into a directly cloneable
// HTTPS URL. SSH remotes (git@host:owner/repo or ssh://git@host/owner/repo)
// become https://host/owner/repo, and network URLs get a ".git" suffix when
// missing. Local paths and file:// URLs are only trimmed.
func NormalizeRemoteURL(raw string) string {
	normalized := strings.TrimRight(strings.TrimSpace(raw), "/")
	if normalized == "" {
		return ""
	}

	if m := scpLikeURL.FindStringSubmatch(normalized); m != nil {
		normalized = "https://" + m[1] + "/" + m[2]
	} else if parsed, err := url.Parse(normalized); err == nil && parsed.Scheme == "ssh" && parsed.Host != "" {
		normalized = "https://" + parsed.Hostname() + parsed.EscapedPath()
	}

	if isNetworkURL(normalized) && !strings.HasSuffix(normalized, gitSuffix) {
		normalized += gitSuffix
	}
	return normalized
}

// ExtractName derives a plugin name from a repository URL: the last path
// segment without its ".git" suffix. It reports false when the URL has no
// usable last segment.
func ExtractName(rawURL string) (string, bool) {
	path := strings.TrimSpace(rawURL)

	if m := scpLikeURL.FindStringSubmatch(path); m != nil {
		path = m[2]
	} else if parsed, err := url.Parse(path); err == nil && parsed.Scheme != "" {
		path = parsed.Path
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")

	name := path[strings.LastIndexAny(path, "/:")+1:]
	name = strings.TrimSuffix(name, gitSuffix)
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	return name, true
}

func isNetworkURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://")
}
