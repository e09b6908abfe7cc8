// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/alnah/go-md2docx/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBackendConnect returns hints for conversion service connection errors.
// Inside a container a loopback backend URL points at the container itself.
func ForBackendConnect(backendURL string) string {
	var hints []string

	if IsInContainer() && IsLoopbackURL(backendURL) {
		hints = append(hints, "localhost is the container itself; use the backend service name or host.docker.internal")
	}

	if os.Getenv("MD2DOCX_BACKEND_URL") == "" {
		hints = append(hints, "set MD2DOCX_BACKEND_URL or --backend to the conversion endpoint")
	}

	hints = append(hints, "run 'md2docx doctor' to check the backend")
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout or backend.timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config dir.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(slashed(p), "/go-md2docx/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForAddrInUse returns hints for a listen address already taken.
func ForAddrInUse(addr string) string {
	hint := "another process is listening on " + addr
	if _, port, err := net.SplitHostPort(addr); err == nil && port != "0" {
		hint += "; use --addr with another port, or :0 for any free port"
	}
	return format(hint)
}

// ForHighlightStyle returns hints for unknown code highlight styles.
func ForHighlightStyle(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// IsLoopbackURL reports whether raw points at localhost or a loopback IP.
func IsLoopbackURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// slashed normalizes Windows separators for substring checks.
func slashed(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
