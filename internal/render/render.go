package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

var (
	readTarget  = os.ReadFile
	writeTarget = os.WriteFile
)

// Renderer rewrites target files in place.
type Renderer struct {
	root   string
	logger *zap.Logger
}

// New creates a Renderer. Every target path, absolute or relative, is
// resolved beneath root; an empty root leaves paths untouched.
func New(root string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{root: root, logger: logger}
}

type substitution struct {
	token string
	value string
}

type plan struct {
	path string
	subs []substitution
}

// Resolve returns the value for p: the environment value when set and
// non-empty, else the default. A required placeholder without a value fails
// with ErrMissingRequiredConfig.
func Resolve(p Placeholder, env Env) (string, error) {
	if v, ok := env.Lookup(p.EnvVar); ok {
		return v, nil
	}
	if p.Default != nil {
		return *p.Default, nil
	}
	return "", fmt.Errorf("%w: %s is not set (token %s)", ErrMissingRequiredConfig, p.EnvVar, p.Token)
}

// Render substitutes every placeholder of every target, in order. All values
// are resolved before any file is opened. Files rendered before a failing
// file stay rendered.
func (r *Renderer) Render(targets []Target, env Env) ([]FileReport, error) {
	plans, err := r.plan(targets, env)
	if err != nil {
		return nil, err
	}

	reports := make([]FileReport, 0, len(plans))
	for _, p := range plans {
		report, err := renderFile(p)
		if err != nil {
			return reports, err
		}
		r.logger.Debug("rendered file",
			zap.String("path", report.Path),
			zap.Int("replacements", report.Total()),
			zap.Bool("written", report.Written),
		)
		reports = append(reports, report)
	}
	return reports, nil
}

// Check verifies that no declared token remains in any target.
func (r *Renderer) Check(targets []Target) error {
	var errs []error
	for _, t := range targets {
		path := r.resolvePath(t.Path)
		data, err := readTarget(path)
		if err != nil {
			return classify(path, err)
		}
		content := string(data)
		for _, p := range t.Placeholders {
			if n := strings.Count(content, p.Token); n > 0 {
				errs = append(errs, fmt.Errorf("%w: %s occurs %d time(s) in %s", ErrUnrenderedToken, p.Token, n, path))
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Renderer) plan(targets []Target, env Env) ([]plan, error) {
	plans := make([]plan, 0, len(targets))
	var missing []error
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		p := plan{path: r.resolvePath(t.Path), subs: make([]substitution, 0, len(t.Placeholders))}
		for _, ph := range t.Placeholders {
			value, err := Resolve(ph, env)
			if err != nil {
				missing = append(missing, err)
				continue
			}
			p.subs = append(p.subs, substitution{token: ph.Token, value: value})
		}
		plans = append(plans, p)
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}
	return plans, nil
}

func (r *Renderer) resolvePath(path string) string {
	if r.root == "" {
		return path
	}
	return filepath.Join(r.root, path)
}

func renderFile(p plan) (FileReport, error) {
	report := FileReport{Path: p.path, Replacements: make(map[string]int, len(p.subs))}

	info, err := os.Stat(p.path)
	if err != nil {
		return report, classify(p.path, err)
	}
	if info.IsDir() {
		return report, fmt.Errorf("%w: %s is a directory", ErrConfigFileAccessDenied, p.path)
	}

	data, err := readTarget(p.path)
	if err != nil {
		return report, classify(p.path, err)
	}
	original := string(data)

	pairs := make([]string, 0, 2*len(p.subs))
	for _, s := range p.subs {
		report.Replacements[s.token] = strings.Count(original, s.token)
		pairs = append(pairs, s.token, s.value)
	}
	// Single pass: a substituted value is never rescanned for other tokens.
	rendered := strings.NewReplacer(pairs...).Replace(original)
	if rendered == original {
		return report, nil
	}

	if err := writeTarget(p.path, []byte(rendered), info.Mode().Perm()); err != nil {
		return report, classifyWrite(p.path, err)
	}
	report.Written = true
	return report, nil
}

// classify maps a stat or read failure onto the file error taxonomy.
// ENOTDIR means a parent component is a regular file, so the target cannot exist.
func classify(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s: %w", ErrConfigFileAccessDenied, path, err)
	default:
		return fmt.Errorf("%s: %w", path, err)
	}
}

// classifyWrite treats every failure to write back an existing, readable
// file (EROFS, EPERM, ETXTBSY, ...) as access denied.
func classifyWrite(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConfigFileAccessDenied, path, err)
}
