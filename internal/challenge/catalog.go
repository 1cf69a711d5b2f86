package challenge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habithero/internal/models"
	"github.com/julianstephens/habithero/internal/utils"
)

//go:embed challenges.yaml
var defaultData []byte

// Template is a habit a challenge adds to the participant's list.
type Template struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
	Emoji    string `yaml:"emoji,omitempty" json:"emoji,omitempty"`
	Deadline string `yaml:"deadline" json:"deadline"` // HH:MM
}

// Challenge is a fixed set of daily habits kept for DurationDays.
type Challenge struct {
	ID              string     `yaml:"id" json:"id"`
	Title           string     `yaml:"title" json:"title"`
	Description     string     `yaml:"description" json:"description"`
	DurationDays    int        `yaml:"duration_days" json:"duration_days"`
	Icon            string     `yaml:"icon,omitempty" json:"icon,omitempty"`
	WhyItMatters    string     `yaml:"why_it_matters,omitempty" json:"why_it_matters,omitempty"`
	PositiveEffects []string   `yaml:"positive_effects,omitempty" json:"positive_effects,omitempty"`
	Habits          []Template `yaml:"habits" json:"habits"`
}

type Catalog struct {
	Challenges []Challenge `yaml:"challenges" json:"challenges"`
}

// Load returns the built-in challenges.
func Load() (*Catalog, error) {
	return Parse(defaultData)
}

// Parse decodes a challenge document. Challenge IDs must be unique, and so
// must template IDs within a challenge.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse challenges: %w", err)
	}
	seen := make(map[string]bool, len(c.Challenges))
	for _, ch := range c.Challenges {
		if strings.TrimSpace(ch.ID) == "" {
			return nil, fmt.Errorf("challenge %q has an empty id", ch.Title)
		}
		if seen[ch.ID] {
			return nil, fmt.Errorf("duplicate challenge %q", ch.ID)
		}
		seen[ch.ID] = true
		if ch.DurationDays < 1 {
			return nil, fmt.Errorf("challenge %s: duration must be at least one day", ch.ID)
		}
		if len(ch.Habits) == 0 {
			return nil, fmt.Errorf("challenge %s has no habits", ch.ID)
		}
		templates := make(map[string]bool, len(ch.Habits))
		for _, t := range ch.Habits {
			if strings.TrimSpace(t.ID) == "" || templates[t.ID] {
				return nil, fmt.Errorf("challenge %s: missing or duplicate template id %q", ch.ID, t.ID)
			}
			templates[t.ID] = true
			if _, _, err := utils.ParseHourMinute(t.Deadline); err != nil {
				return nil, fmt.Errorf("challenge %s template %s: invalid deadline: %w", ch.ID, t.ID, err)
			}
		}
	}
	return &c, nil
}

// Get looks a challenge up by ID.
func (c *Catalog) Get(id string) (Challenge, error) {
	for _, ch := range c.Challenges {
		if ch.ID == id {
			return ch, nil
		}
	}
	return Challenge{}, fmt.Errorf("%w: %q", ErrUnknownChallenge, id)
}

// Habit builds the unsaved habit for t, linked back to challengeID.
func (t Template) Habit(challengeID string) (models.Habit, error) {
	h := models.NewHabit(t.Name, t.Category)
	hour, minute, err := utils.ParseHourMinute(t.Deadline)
	if err != nil {
		return models.Habit{}, fmt.Errorf("template %s: %w", t.ID, err)
	}
	h.DeadlineHour, h.DeadlineMinute = hour, minute
	h.IconRef = t.Emoji
	h.SourceChallengeID = challengeID
	h.SourceTemplateID = t.ID
	return h, nil
}

// MissingTemplates returns the templates of ch that no habit in habits was
// created from.
func (ch Challenge) MissingTemplates(habits []models.Habit) []Template {
	have := make(map[string]bool)
	for _, h := range habits {
		if h.SourceChallengeID == ch.ID {
			have[h.SourceTemplateID] = true
		}
	}
	var missing []Template
	for _, t := range ch.Habits {
		if !have[t.ID] {
			missing = append(missing, t)
		}
	}
	return missing
}
