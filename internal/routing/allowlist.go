package routing

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Allowlist struct {
	Version     int                   `yaml:"version"`
	Entrypoints map[string]Entrypoint `yaml:"entrypoints"`
}

type Entrypoint struct {
	Routes []Route `yaml:"routes"`
}

type Route struct {
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	RouteClass string   `yaml:"route_class"`
}

func ParseAllowlistYAML(b []byte) (Allowlist, error) {
	var a Allowlist
	if err := yaml.Unmarshal(b, &a); err != nil {
		return Allowlist{}, err
	}
	if a.Version != 1 {
		return Allowlist{}, errors.New("allowlist: unsupported version")
	}
	if a.Entrypoints == nil {
		return Allowlist{}, errors.New("allowlist: missing entrypoints")
	}
	for name, ep := range a.Entrypoints {
		for _, r := range ep.Routes {
			for _, m := range r.Methods {
				if !knownMethod(m) {
					return Allowlist{}, fmt.Errorf("allowlist: entrypoint %s route %s: unknown method %q", name, r.Path, m)
				}
			}
		}
	}
	return a, nil
}

func knownMethod(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func LoadAllowlist(path string) (Allowlist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Allowlist{}, err
	}
	return ParseAllowlistYAML(b)
}

// LoadAllowlistFromEnv reads ALLOWLIST_PATH, falling back to
// config/routing/allowlist.yaml found by walking up from the working dir.
func LoadAllowlistFromEnv() (Allowlist, error) {
	path := os.Getenv("ALLOWLIST_PATH")
	if path == "" {
		p, err := DefaultAllowlistPath()
		if err != nil {
			return Allowlist{}, err
		}
		path = p
	}
	return LoadAllowlist(path)
}

func DefaultAllowlistPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for range 8 {
		p := filepath.Join(dir, "config", "routing", "allowlist.yaml")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("allowlist: config/routing/allowlist.yaml not found")
}
