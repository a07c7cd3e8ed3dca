package kpi

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

//go:embed kpi.yaml
var defaultFormulas []byte

// Formula is a derived metric. Expr sees the base aggregates as m, a
// map(string, double), and must produce a double.
type Formula struct {
	Name        string `yaml:"name"`
	Section     string `yaml:"section"`
	Description string `yaml:"description"`
	Expr        string `yaml:"expr"`
}

type file struct {
	Version  int       `yaml:"version"`
	Formulas []Formula `yaml:"formulas"`
}

type compiled struct {
	Formula
	program cel.Program
}

type Set struct {
	bySection map[string][]compiled
}

var programCache sync.Map

var newEnv = func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("m", cel.MapType(cel.StringType, cel.DoubleType)))
}

func compile(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("kpi: expression required")
	}
	if cached, ok := programCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.DoubleType) {
		return nil, errors.New("kpi: expression must produce a double")
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	programCache.Store(expr, program)
	return program, nil
}

func Parse(b []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Version != 1 {
		return nil, errors.New("kpi: unsupported version")
	}
	s := &Set{bySection: map[string][]compiled{}}
	seen := map[string]bool{}
	for _, fm := range f.Formulas {
		fm.Name = strings.TrimSpace(fm.Name)
		fm.Section = strings.TrimSpace(fm.Section)
		if fm.Name == "" || fm.Section == "" {
			return nil, errors.New("kpi: name and section are required")
		}
		key := fm.Section + "/" + fm.Name
		if seen[key] {
			return nil, fmt.Errorf("kpi: duplicate formula %s", key)
		}
		seen[key] = true
		p, err := compile(fm.Expr)
		if err != nil {
			return nil, fmt.Errorf("kpi: %s: %w", fm.Name, err)
		}
		s.bySection[fm.Section] = append(s.bySection[fm.Section], compiled{Formula: fm, program: p})
	}
	return s, nil
}

func Default() *Set {
	s, err := Parse(defaultFormulas)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadFromEnv reads KPI_PATH when set, then config/kpi.yaml when present,
// and falls back to the embedded formulas.
func LoadFromEnv() (*Set, error) {
	if p := strings.TrimSpace(os.Getenv("KPI_PATH")); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		return Parse(b)
	}
	path := "config/kpi.yaml"
	for range 8 {
		if b, err := os.ReadFile(path); err == nil {
			return Parse(b)
		}
		path = filepath.Join("..", path)
	}
	return Default(), nil
}

func (s *Set) Names(section string) []string {
	var out []string
	for _, c := range s.bySection[section] {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

// Evaluate runs every formula of section against base. Missing inputs read
// as zero; results are rounded to two decimals.
func (s *Set) Evaluate(section string, base map[string]float64) (map[string]float64, error) {
	formulas := s.bySection[section]
	out := make(map[string]float64, len(formulas))
	if len(formulas) == 0 {
		return out, nil
	}
	vars := map[string]float64{}
	for k, v := range base {
		vars[k] = v
	}
	for _, c := range formulas {
		for _, ref := range referencedKeys(c.Expr) {
			if _, ok := vars[ref]; !ok {
				vars[ref] = 0
			}
		}
	}

	for _, c := range formulas {
		val, _, err := c.program.Eval(map[string]any{"m": vars})
		if err != nil {
			return nil, fmt.Errorf("kpi: %s: %w", c.Name, err)
		}
		f, ok := val.Value().(float64)
		if !ok {
			return nil, fmt.Errorf("kpi: %s: non-double result", c.Name)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		out[c.Name] = math.Round(f*100) / 100
	}
	return out, nil
}

// referencedKeys lists m.<key> selections in expr.
func referencedKeys(expr string) []string {
	var out []string
	rest := expr
	for {
		i := strings.Index(rest, "m.")
		if i < 0 {
			return out
		}
		if i > 0 && isIdentByte(rest[i-1]) {
			rest = rest[i+2:]
			continue
		}
		rest = rest[i+2:]
		j := 0
		for j < len(rest) && isIdentByte(rest[j]) {
			j++
		}
		if j > 0 {
			out = append(out, rest[:j])
		}
		rest = rest[j:]
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
