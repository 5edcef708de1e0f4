package utils

import "strings"

// BuildBrowseCacheKey derives a stable cache key from the browse view's
// refinement criteria. Terms short enough to be treated as "no search"
// still produce distinct keys; the loader resolves them to the same
// result, the cache just holds both briefly.
func BuildBrowseCacheKey(category, searchTerm string) string {
	return "events:browse:v1" +
		":category=" + strings.ToLower(strings.TrimSpace(category)) +
		":q=" + strings.ToLower(strings.TrimSpace(searchTerm))
}
