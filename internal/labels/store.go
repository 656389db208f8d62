package labels

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"hidectl/internal/models"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrNoLabel is returned when no override exists for a package
var ErrNoLabel = errors.New("no label override")

// defaultLocale keys an entry used when no locale matches
const defaultLocale = "und"

// File is the YAML structure of labels.yaml
type File struct {
	Labels map[string]map[string]string `yaml:"labels"`
	Deny   []string                     `yaml:"deny"`
}

// Store holds label overrides and extra deny entries persisted in a YAML file.
// It is safe for concurrent use.
type Store struct {
	path string

	mu   sync.RWMutex
	file File
}

// New creates a store backed by path
func New(path string) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	return &Store{path: path, file: File{Labels: map[string]map[string]string{}}}
}

// DefaultPath returns the default labels file path
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "hidectl", "labels.yaml")
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the file. A missing file yields an empty store.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	if f.Labels == nil {
		f.Labels = map[string]map[string]string{}
	}

	s.mu.Lock()
	s.file = f
	s.mu.Unlock()
	return nil
}

// SetLabel stores a label for pkg in locale and persists the file
func (s *Store) SetLabel(pkg, locale, label string) error {
	pkg = strings.TrimSpace(pkg)
	label = strings.TrimSpace(label)
	if !models.ValidPackageID(pkg) {
		return fmt.Errorf("invalid package id %q", pkg)
	}
	if label == "" {
		return fmt.Errorf("label is required")
	}
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = defaultLocale
	}
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	s.mu.Lock()
	if s.file.Labels[pkg] == nil {
		s.file.Labels[pkg] = map[string]string{}
	}
	s.file.Labels[pkg][locale] = label
	s.mu.Unlock()

	return s.save()
}

// Denied reports whether pkg is on the user deny list
func (s *Store) Denied(pkg string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.file.Deny {
		if strings.TrimSpace(d) == pkg {
			return true
		}
	}
	return false
}

// Resolve returns the override label for ref that best matches tag
func (s *Store) Resolve(ctx context.Context, ref string, tag language.Tag) (string, error) {
	s.mu.RLock()
	byLocale := s.file.Labels[ref]
	s.mu.RUnlock()

	if len(byLocale) == 0 {
		return "", fmt.Errorf("%w for %s", ErrNoLabel, ref)
	}

	locales := make([]string, 0, len(byLocale))
	for loc := range byLocale {
		if loc != defaultLocale {
			locales = append(locales, loc)
		}
	}
	sort.Strings(locales)

	tags := make([]language.Tag, 0, len(locales))
	keys := make([]string, 0, len(locales))
	for _, loc := range locales {
		t, err := language.Parse(loc)
		if err != nil {
			continue
		}
		tags = append(tags, t)
		keys = append(keys, loc)
	}

	if len(tags) > 0 {
		_, idx, conf := language.NewMatcher(tags).Match(tag)
		if conf != language.No {
			return byLocale[keys[idx]], nil
		}
	}
	if label, ok := byLocale[defaultLocale]; ok {
		return label, nil
	}
	return "", fmt.Errorf("%w for %s in %s", ErrNoLabel, ref, tag)
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.file)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
