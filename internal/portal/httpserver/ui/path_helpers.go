package ui

import "strings"

func joinBasePath(basePath, suffix string) string {
	if !strings.HasPrefix(suffix, "/") {
		suffix = "/" + suffix
	}
	base := strings.TrimRight(strings.TrimSpace(basePath), "/")
	return base + suffix
}
