package tenancy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record describes a tenant for cross-tenant listings.
type Record struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Demo   bool   `json:"demo" yaml:"demo"`
	Active bool   `json:"active" yaml:"active"`
}

type Member struct {
	UserID   string `yaml:"user_id"`
	TenantID string `yaml:"tenant_id"`
}

type directoryFile struct {
	Version int      `yaml:"version"`
	Tenants []Record `yaml:"tenants"`
	Members []Member `yaml:"members"`
}

// StaticDirectory serves tenants and memberships from a YAML file. It backs
// local and demo deployments that run without Postgres.
type StaticDirectory struct {
	tenants []Record
	members map[string]string
	demoID  string
}

func ParseDirectoryYAML(b []byte) (*StaticDirectory, error) {
	var f directoryFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Version != 1 {
		return nil, errors.New("tenancy: unsupported directory version")
	}
	if len(f.Tenants) == 0 {
		return nil, errors.New("tenancy: directory has no tenants")
	}

	d := &StaticDirectory{members: make(map[string]string, len(f.Members))}
	known := make(map[string]bool, len(f.Tenants))
	for _, t := range f.Tenants {
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, errors.New("tenancy: tenant id is required")
		}
		if known[t.ID] {
			return nil, errors.New("tenancy: duplicate tenant " + t.ID)
		}
		known[t.ID] = true
		if t.Demo && t.Active && d.demoID == "" {
			d.demoID = t.ID
		}
		d.tenants = append(d.tenants, t)
	}
	for _, m := range f.Members {
		m.UserID = strings.TrimSpace(m.UserID)
		m.TenantID = strings.TrimSpace(m.TenantID)
		if m.UserID == "" || !known[m.TenantID] {
			return nil, errors.New("tenancy: invalid member")
		}
		d.members[m.UserID] = m.TenantID
	}
	sort.Slice(d.tenants, func(i, j int) bool { return d.tenants[i].ID < d.tenants[j].ID })
	return d, nil
}

func LoadDirectory(path string) (*StaticDirectory, error) {
	if path == "" {
		p, err := defaultDirectoryPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDirectoryYAML(b)
}

func defaultDirectoryPath() (string, error) {
	path := "config/tenants.yaml"
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("tenancy: tenants config not found")
}

func (d *StaticDirectory) TenantForUser(_ context.Context, userID string) (string, bool, error) {
	t, ok := d.members[strings.TrimSpace(userID)]
	return t, ok, nil
}

func (d *StaticDirectory) DemoTenantID(context.Context) (string, bool, error) {
	return d.demoID, d.demoID != "", nil
}

func (d *StaticDirectory) ListTenants(context.Context) ([]Record, error) {
	out := make([]Record, len(d.tenants))
	copy(out, d.tenants)
	return out, nil
}

// StaticDemoTenant is a fixed demo tenant id (DEMO_TENANT_ID).
type StaticDemoTenant string

func (s StaticDemoTenant) DemoTenantID(context.Context) (string, bool, error) {
	id := strings.TrimSpace(string(s))
	return id, id != "", nil
}
