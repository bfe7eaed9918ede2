// Package router owns the route table and drives dispatch: it matches
// an inbound request against registered patterns, assigns captured
// parameters, and runs the middleware chain ending in the route action.
package router

import (
	"fmt"
	"strings"
)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segParam
	segOptional
)

type segment struct {
	kind    segmentKind
	literal string
	name    string
}

// pattern is a compiled path template. Compilation is a single pass
// over the template text that produces the segment list and the
// ordered parameter names together, so the two can never disagree
// positionally.
type pattern struct {
	raw      string
	segments []segment
	names    []string
	exact    bool
}

// compilePattern tokenizes a path template. Segments are delimited by
// "/"; "{name}" captures exactly one segment and "{name?}" optionally
// captures one.
func compilePattern(raw string) (*pattern, error) {
	p := &pattern{raw: raw, exact: true}

	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return p, nil
	}

	for _, part := range strings.Split(trimmed, "/") {
		if !strings.HasPrefix(part, "{") {
			if strings.ContainsAny(part, "{}") {
				return nil, fmt.Errorf("router: malformed segment %q in pattern %q", part, raw)
			}
			p.segments = append(p.segments, segment{kind: segLiteral, literal: part})
			continue
		}
		if !strings.HasSuffix(part, "}") {
			return nil, fmt.Errorf("router: malformed segment %q in pattern %q", part, raw)
		}

		name := part[1 : len(part)-1]
		kind := segParam
		if strings.HasSuffix(name, "?") {
			name = strings.TrimSuffix(name, "?")
			kind = segOptional
		}
		if name == "" || strings.ContainsAny(name, "{}?/") {
			return nil, fmt.Errorf("router: invalid parameter name in segment %q of pattern %q", part, raw)
		}
		for _, seen := range p.names {
			if seen == name {
				return nil, fmt.Errorf("router: duplicate parameter %q in pattern %q", name, raw)
			}
		}

		p.segments = append(p.segments, segment{kind: kind, name: name})
		p.names = append(p.names, name)
		p.exact = false
	}

	return p, nil
}

// match attempts to match a request path. On success it returns the
// captured parameters; optional segments omitted from the path yield
// no map entry at all.
func (p *pattern) match(path string) (map[string]string, bool) {
	// Placeholder-free patterns compare directly.
	if p.exact {
		if normalize(path) == normalize(p.raw) {
			return map[string]string{}, true
		}
		return nil, false
	}

	trimmed := strings.Trim(path, "/")
	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	params := make(map[string]string, len(p.names))
	if !matchSegments(p.segments, parts, params) {
		return nil, false
	}
	return params, true
}

// matchSegments walks pattern segments against path segments. Optional
// segments are tried consuming first and skipping on failure, so a
// trailing literal after an optional still matches a shorter path.
func matchSegments(segs []segment, parts []string, params map[string]string) bool {
	if len(segs) == 0 {
		return len(parts) == 0
	}

	seg := segs[0]
	switch seg.kind {
	case segLiteral:
		if len(parts) == 0 || parts[0] != seg.literal {
			return false
		}
		return matchSegments(segs[1:], parts[1:], params)
	case segParam:
		if len(parts) == 0 || parts[0] == "" {
			return false
		}
		params[seg.name] = parts[0]
		if matchSegments(segs[1:], parts[1:], params) {
			return true
		}
		delete(params, seg.name)
		return false
	default: // segOptional
		if len(parts) > 0 && parts[0] != "" {
			params[seg.name] = parts[0]
			if matchSegments(segs[1:], parts[1:], params) {
				return true
			}
			delete(params, seg.name)
		}
		return matchSegments(segs[1:], parts, params)
	}
}

func normalize(path string) string {
	if trimmed := strings.Trim(path, "/"); trimmed != "" {
		return "/" + trimmed
	}
	return "/"
}
