package routing

import "strings"

// pathPattern matches allowlist paths such as /employees/{id} or
// /api/v1/{endpoint...}. A trailing {name...} segment absorbs one or more
// remaining segments.
type pathPattern struct {
	raw      string
	segments []string
	rest     bool
}

func compilePattern(raw string) (pathPattern, bool) {
	if raw == "" || raw[0] != '/' || !strings.Contains(raw, "{") {
		return pathPattern{}, false
	}

	segs := segments(raw)
	p := pathPattern{raw: raw, segments: segs}
	for i, s := range segs {
		if s == "" {
			return pathPattern{}, false
		}
		if !strings.ContainsAny(s, "{}") {
			continue
		}
		name, ok := paramName(s)
		if !ok {
			return pathPattern{}, false
		}
		if base, isRest := strings.CutSuffix(name, "..."); isRest {
			if base == "" || i != len(segs)-1 {
				return pathPattern{}, false
			}
			p.rest = true
		}
	}
	return p, true
}

// match reports whether path fits the pattern and returns the captured
// parameters. A rest parameter captures the joined remainder.
func (p pathPattern) match(path string) (map[string]string, bool) {
	if p.raw == "" {
		return nil, false
	}
	in := segments(path)
	switch {
	case p.rest && len(in) < len(p.segments):
		return nil, false
	case !p.rest && len(in) != len(p.segments):
		return nil, false
	}

	params := map[string]string{}
	for i, want := range p.segments {
		if in[i] == "" {
			return nil, false
		}
		name, isParam := paramName(want)
		if !isParam {
			if in[i] != want {
				return nil, false
			}
			continue
		}
		if base, isRest := strings.CutSuffix(name, "..."); isRest {
			tail := in[i:]
			for _, s := range tail {
				if s == "" {
					return nil, false
				}
			}
			params[base] = strings.Join(tail, "/")
			break
		}
		params[name] = in[i]
	}
	return params, true
}

func segments(path string) []string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func paramName(s string) (string, bool) {
	if len(s) <= 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return "", false
	}
	name := s[1 : len(s)-1]
	if strings.ContainsAny(name, "{}") {
		return "", false
	}
	return name, true
}
