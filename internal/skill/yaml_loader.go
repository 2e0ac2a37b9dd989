package skill

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"streamnova/internal/domain"

	"gopkg.in/yaml.v3"
)

// Definition is a user-authored skill loaded from YAML. It matches on
// keywords or a regex pattern and replies with one of its canned
// responses.
type Definition struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Pattern   string   `yaml:"pattern"`
	Responses []string `yaml:"responses"`
}

// userSkill adapts a Definition to the Skill interface.
type userSkill struct {
	def      Definition
	keywords []string // pre-lowered
	pattern  *regexp.Regexp
}

func (u *userSkill) Name() string { return u.def.Name }

func (u *userSkill) ShouldHandle(author, message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range u.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if u.pattern != nil && u.pattern.MatchString(message) {
		return true
	}
	return false
}

func (u *userSkill) Handle(ctx context.Context, in domain.SkillInput) (string, error) {
	if len(u.def.Responses) == 0 {
		return "", nil
	}
	return u.def.Responses[hashIndex(in.Message, len(u.def.Responses))], nil
}

// LoadFromDirectory loads user skills from YAML files in a directory.
// Files must have a .yaml or .yml extension; unreadable or malformed files
// are skipped with a warning.
func LoadFromDirectory(dir string, logger *slog.Logger) ([]domain.Skill, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("skills directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read skills dir: %w", err)
	}

	var skills []domain.Skill
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read skill file", "path", path, "err", err)
			continue
		}

		var def Definition
		if err := yaml.Unmarshal(data, &def); err != nil {
			logger.Warn("cannot parse skill file", "path", path, "err", err)
			continue
		}
		if def.Name == "" {
			def.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}

		s := &userSkill{def: def}
		for _, kw := range def.Keywords {
			s.keywords = append(s.keywords, strings.ToLower(kw))
		}
		if def.Pattern != "" {
			re, err := regexp.Compile(def.Pattern)
			if err != nil {
				logger.Warn("invalid skill trigger pattern", "skill", def.Name, "pattern", def.Pattern, "err", err)
			} else {
				s.pattern = re
			}
		}

		logger.Info("loaded user skill", "name", def.Name, "path", path)
		skills = append(skills, s)
	}

	return skills, nil
}
