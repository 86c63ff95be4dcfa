package agent

import (
	"sort"
	"strings"

	"courier/internal/payload"
)

// Router assigns every package to exactly one queue. Path-prefix rules
// select a non-default queue; everything else lands on the default queue.
type Router struct {
	fallback string
	rules    []routeRule
}

type routeRule struct {
	prefix string
	queue  string
}

// NewRouter builds a router from the configured queue→prefix rules. Rules
// are ordered longest prefix first so the most specific rule wins and the
// outcome does not depend on map iteration order.
func NewRouter(defaultQueue string, routing map[string][]string) *Router {
	r := &Router{fallback: defaultQueue}
	for queueName, prefixes := range routing {
		for _, prefix := range prefixes {
			r.rules = append(r.rules, routeRule{prefix: prefix, queue: queueName})
		}
	}
	sort.Slice(r.rules, func(i, j int) bool {
		a, b := r.rules[i], r.rules[j]
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		if a.prefix != b.prefix {
			return a.prefix < b.prefix
		}
		return a.queue < b.queue
	})
	return r
}

// Route returns the queue name for the package.
func (r *Router) Route(pkg payload.Package) string {
	for _, rule := range r.rules {
		for _, path := range pkg.Paths {
			if matchesPrefix(path, rule.prefix) {
				return rule.queue
			}
		}
	}
	return r.fallback
}

// matchesPrefix reports whether path sits at or below prefix. Segment
// boundaries matter: /content/site does not cover /content/sitemap.
func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
