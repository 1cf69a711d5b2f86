// Package catalog lists the predefined habit categories and their suggested
// habits.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habithero/internal/constants"
)

//go:embed categories.yaml
var defaultData []byte

// Category groups suggested habits under a name and icon.
type Category struct {
	Name   string   `yaml:"name" json:"name"`
	Icon   string   `yaml:"icon" json:"icon"`
	Habits []string `yaml:"habits,omitempty" json:"habits,omitempty"`
	// Custom marks the free-form category whose habits the user names.
	Custom bool `yaml:"custom,omitempty" json:"custom,omitempty"`
}

type Catalog struct {
	DefaultIcon string     `yaml:"default_icon" json:"default_icon"`
	Categories  []Category `yaml:"categories" json:"categories"`
}

// Load returns the built-in catalog.
func Load() (*Catalog, error) {
	return Parse(defaultData)
}

// Parse decodes a catalog document and checks that category names are unique.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		key := strings.ToLower(strings.TrimSpace(cat.Name))
		if key == "" {
			return nil, fmt.Errorf("catalog category with empty name")
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate catalog category %q", cat.Name)
		}
		seen[key] = true
	}
	return &c, nil
}

// Category looks a category up by name, ignoring case.
func (c *Catalog) Category(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, name) {
			return cat, true
		}
	}
	return Category{}, false
}

// IconFor returns the icon of category, or the default icon when the
// category is unknown or has none.
func (c *Catalog) IconFor(category string) string {
	if cat, ok := c.Category(category); ok && cat.Icon != "" {
		return cat.Icon
	}
	return c.DefaultIcon
}

// Names returns the category names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

// Normalize maps a user-supplied category to its canonical catalog spelling.
// Unknown names are kept as typed; an empty name becomes the custom category.
func (c *Catalog) Normalize(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return constants.CustomCategory
	}
	if cat, ok := c.Category(category); ok {
		return cat.Name
	}
	return category
}
