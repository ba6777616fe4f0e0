// Package skills loads user-installable skill definitions from disk. A
// skill is a directory containing a SKILL.md whose YAML frontmatter
// declares its metadata; the markdown body is the instruction text handed
// to the engine when the skill is invoked.
package skills

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Skill is one loaded skill definition.
type Skill struct {
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description" yaml:"description"`
	ArgumentHint  string `json:"argument_hint,omitempty" yaml:"argument-hint"`
	UserInvocable bool   `json:"user_invocable" yaml:"user-invocable"`

	Path string `json:"-" yaml:"-"`
	Body string `json:"-" yaml:"-"`
}

// Loader scans a directory tree of skills and caches the result.
type Loader struct {
	dir string

	mu     sync.RWMutex
	skills map[string]Skill
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, skills: map[string]Skill{}}
}

// Reload rescans the skills directory and replaces the cache. Unreadable
// or malformed skills are skipped with a warning, never fatal.
func (l *Loader) Reload() map[string]Skill {
	found := map[string]Skill{}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("component", "skills").Str("dir", l.dir).Msg("skills dir unreadable")
		}
		l.mu.Lock()
		l.skills = found
		l.mu.Unlock()
		return found
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(l.dir, entry.Name(), "SKILL.md")
		skill, err := parseSkillFile(path)
		if err != nil {
			log.Warn().Err(err).Str("component", "skills").Str("path", path).Msg("skipping skill")
			continue
		}
		if skill.Name == "" {
			skill.Name = entry.Name()
		}
		found[skill.Name] = skill
	}
	l.mu.Lock()
	l.skills = found
	l.mu.Unlock()
	log.Debug().Str("component", "skills").Int("count", len(found)).Msg("skills reloaded")
	return found
}

// Invocable lists skills the user may trigger directly, sorted by name.
func (l *Loader) Invocable() []Skill {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Skill, 0, len(l.skills))
	for _, s := range l.skills {
		if s.UserInvocable {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns a loaded skill by name.
func (l *Loader) Get(name string) (Skill, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.skills[name]
	return s, ok
}

// Search matches the query as a case-insensitive substring of skill names
// and descriptions. An empty query matches nothing.
func (l *Loader) Search(query string) []Skill {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Skill
	for _, s := range l.skills {
		if strings.Contains(strings.ToLower(s.Name), query) ||
			strings.Contains(strings.ToLower(s.Description), query) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func parseSkillFile(path string) (Skill, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, errors.Wrap(err, "read skill")
	}
	front, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return Skill{}, err
	}
	skill := Skill{UserInvocable: true}
	if err := yaml.Unmarshal([]byte(front), &skill); err != nil {
		return Skill{}, errors.Wrap(err, "parse skill frontmatter")
	}
	skill.Path = path
	skill.Body = strings.TrimSpace(body)
	return skill, nil
}

func splitFrontmatter(content string) (string, string, error) {
	const marker = "---"
	trimmed := strings.TrimLeft(content, "\n")
	if !strings.HasPrefix(trimmed, marker) {
		return "", "", errors.New("missing frontmatter")
	}
	rest := strings.TrimPrefix(trimmed, marker)
	idx := strings.Index(rest, "\n"+marker)
	if idx < 0 {
		return "", "", errors.New("unterminated frontmatter")
	}
	front := rest[:idx]
	body := rest[idx+len("\n"+marker):]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	return front, body, nil
}
