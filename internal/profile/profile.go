// Package profile loads the streamer profile from a JSON file.
package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"streamnova/internal/domain"
)

// Store holds the profile in memory after a single load. Profiles are edited
// offline between streams, so there is no reload path.
type Store struct {
	profile domain.Profile
}

// Load reads the profile file. A missing file is not an error; the bot runs
// with an empty profile and skill replies degrade gracefully.
func Load(path string, logger *slog.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Warn("profile file not found, using empty profile", "path", path)
		return &Store{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	var p domain.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	logger.Info("loaded profile", "name", p.Name, "socials", len(p.SocialLinks))
	return &Store{profile: p}, nil
}

// New wraps an already-built profile, mainly for tests.
func New(p domain.Profile) *Store {
	return &Store{profile: p}
}

func (s *Store) Profile() domain.Profile {
	return s.profile
}

// Save writes a starter profile, used by the init subcommand.
func Save(path string, p domain.Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
