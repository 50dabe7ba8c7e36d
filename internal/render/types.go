package render

import (
	"fmt"
	"sort"
	"strings"
)

// Placeholder maps a literal token to the environment variable that supplies
// its value. A nil Default marks the variable as required.
type Placeholder struct {
	Token   string
	EnvVar  string
	Default *string
}

// Required builds a placeholder whose variable must be set.
func Required(token, envVar string) Placeholder {
	return Placeholder{Token: token, EnvVar: envVar}
}

// WithDefault builds a placeholder that falls back to def when the variable is unset or empty.
func WithDefault(token, envVar, def string) Placeholder {
	return Placeholder{Token: token, EnvVar: envVar, Default: &def}
}

// Target is a file on disk together with the placeholders rendered into it.
type Target struct {
	Path         string
	Placeholders []Placeholder
}

// Validate reports whether the target can be rendered unambiguously.
// Tokens must be non-empty, unique, and must not contain one another.
func (t Target) Validate() error {
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidTarget)
	}
	seen := make(map[string]struct{}, len(t.Placeholders))
	for _, p := range t.Placeholders {
		if p.Token == "" {
			return fmt.Errorf("%w: %s: empty token", ErrInvalidTarget, t.Path)
		}
		if p.EnvVar == "" {
			return fmt.Errorf("%w: %s: token %s has no variable", ErrInvalidTarget, t.Path, p.Token)
		}
		if _, dup := seen[p.Token]; dup {
			return fmt.Errorf("%w: %s: duplicate token %s", ErrInvalidTarget, t.Path, p.Token)
		}
		seen[p.Token] = struct{}{}
	}
	for i, a := range t.Placeholders {
		for j, b := range t.Placeholders {
			if i != j && strings.Contains(a.Token, b.Token) {
				return fmt.Errorf("%w: %s: token %s overlaps %s", ErrInvalidTarget, t.Path, a.Token, b.Token)
			}
		}
	}
	return nil
}

// Env is a snapshot of the process environment taken once at startup.
type Env map[string]string

// EnvFromPairs parses KEY=VALUE pairs as returned by os.Environ.
// Entries without '=' are ignored; later duplicates win.
func EnvFromPairs(pairs []string) Env {
	env := make(Env, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// Lookup returns the value of name if it is set and non-empty.
func (e Env) Lookup(name string) (string, bool) {
	v, ok := e[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Environ returns the snapshot as sorted KEY=VALUE pairs.
func (e Env) Environ() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// FileReport summarises what rendering did to a single file.
type FileReport struct {
	Path string
	// Replacements counts occurrences replaced per token.
	Replacements map[string]int
	// Written is false when the content was already rendered.
	Written bool
}

// Total returns the number of replacements made in the file.
func (r FileReport) Total() int {
	total := 0
	for _, n := range r.Replacements {
		total += n
	}
	return total
}
