package skills

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Installer fetches a skill from an owner/repo source into the skills
// directory. The source has already passed ValidateInstallSource.
type Installer func(ctx context.Context, source string) error

// GitInstaller returns the default installer: a shallow clone of the
// GitHub repository into dir.
func GitInstaller(dir string) Installer {
	return func(ctx context.Context, source string) error {
		if err := ValidateInstallSource(source); err != nil {
			return err
		}
		repo := source[strings.LastIndex(source, "/")+1:]
		dest := filepath.Join(dir, repo)
		if _, err := os.Stat(dest); err == nil {
			return errors.Errorf("skill %q already installed", repo)
		}
		cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1",
			"https://github.com/"+source+".git", dest)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return errors.Wrapf(err, "git clone: %s", strings.TrimSpace(string(out)))
		}
		return nil
	}
}

// installSourceRe accepts exactly "owner/repo" GitHub shorthand. Anything
// that could reach the shell or the filesystem is rejected before use.
var installSourceRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// skillNameRe accepts bare directory names only.
var skillNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateInstallSource rejects empty, traversal, shell-metacharacter and
// non-owner/repo sources. The source is later interpolated into a git
// clone, so this is a security boundary, not cosmetics.
func ValidateInstallSource(source string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return errors.New("missing source")
	}
	if strings.Contains(source, "..") {
		return errors.New("invalid source: path traversal")
	}
	if strings.ContainsAny(source, ";|&$`<>(){}[]'\" \t\n\\") {
		return errors.New("invalid source: forbidden characters")
	}
	if !installSourceRe.MatchString(source) {
		return errors.New("invalid source: expected owner/repo")
	}
	return nil
}

// ValidateSkillName rejects names that would escape the skills directory.
func ValidateSkillName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("missing name")
	}
	if strings.Contains(name, "..") {
		return errors.New("invalid name: path traversal")
	}
	if strings.ContainsAny(name, "/\\") {
		return errors.New("invalid name: path separator")
	}
	if !skillNameRe.MatchString(name) {
		return errors.New("invalid name")
	}
	return nil
}

// Remove deletes an installed skill directory after validating the name.
func (l *Loader) Remove(name string) error {
	if err := ValidateSkillName(name); err != nil {
		return err
	}
	dir := filepath.Join(l.dir, name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return errors.Errorf("skill %q is not installed", name)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(err, "remove skill")
	}
	l.Reload()
	return nil
}
