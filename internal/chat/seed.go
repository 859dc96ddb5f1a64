package chat

import (
	_ "embed"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type fixtureFile struct {
	Sessions []fixtureSession `yaml:"sessions"`
}

type fixtureSession struct {
	Title       string           `yaml:"title"`
	LastMessage string           `yaml:"last_message"`
	Age         time.Duration    `yaml:"age"`
	Category    Category         `yaml:"category"`
	Messages    []fixtureMessage `yaml:"messages"`
}

type fixtureMessage struct {
	Role    Role          `yaml:"role"`
	Age     time.Duration `yaml:"age"`
	Content string        `yaml:"content"`
}

// LoadFixtures parses fixture YAML into sessions (in file order) and their
// logs, with ages resolved against now.
func LoadFixtures(data []byte, now time.Time) ([]Session, map[string][]Message, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, errors.Wrap(err, "decode fixtures")
	}

	sessions := make([]Session, 0, len(f.Sessions))
	logs := make(map[string][]Message, len(f.Sessions))
	for i, fs := range f.Sessions {
		if fs.Title == "" {
			return nil, nil, errors.Errorf("fixture session %d has no title", i)
		}
		if fs.Category != "" && !fs.Category.Valid() {
			return nil, nil, errors.Errorf("fixture session %q has unknown category %q", fs.Title, fs.Category)
		}
		id, err := NewSessionID()
		if err != nil {
			return nil, nil, errors.Wrap(err, "generate session id")
		}
		category := fs.Category
		if category == "" {
			category = CategoryGeneral
		}
		sessions = append(sessions, Session{
			ID:          id,
			Title:       fs.Title,
			LastMessage: fs.LastMessage,
			Timestamp:   now.Add(-fs.Age),
			Category:    category,
		})
		for _, fm := range fs.Messages {
			if !fm.Role.Valid() {
				return nil, nil, errors.Errorf("fixture session %q has message with role %q", fs.Title, fm.Role)
			}
			logs[id] = append(logs[id], Message{
				Role:      fm.Role,
				Content:   fm.Content,
				Timestamp: now.Add(-fm.Age),
			})
		}
	}
	return sessions, logs, nil
}

// SeedDefaults loads the built-in demo sessions into store.
func SeedDefaults(store *Store, now time.Time) error {
	sessions, logs, err := LoadFixtures(defaultFixtures, now)
	if err != nil {
		return err
	}
	return store.Seed(sessions, logs)
}
