package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/habithero/internal/constants"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{
		"Health & Fitness",
		"Mindfulness & Well-being",
		"Learning & Growth",
		"Creativity & Expression",
		"Adventure & Exploration",
		constants.CustomCategory,
	}
	if diff := cmp.Diff(want, c.Names()); diff != "" {
		t.Errorf("category names mismatch (-want +got):\n%s", diff)
	}

	for _, cat := range c.Categories {
		if cat.Custom {
			if len(cat.Habits) != 0 {
				t.Errorf("custom category %q should not list habits", cat.Name)
			}
			continue
		}
		if len(cat.Habits) != 16 {
			t.Errorf("category %q has %d habits, want 16", cat.Name, len(cat.Habits))
		}
	}
}

func TestCategoryLookup(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cat, ok := c.Category("  learning & growth ")
	if !ok {
		t.Fatal("expected case-insensitive lookup to succeed")
	}
	if cat.Habits[0] != "Read a chapter from a book" {
		t.Errorf("first suggestion = %q", cat.Habits[0])
	}

	if _, ok := c.Category("Gardening"); ok {
		t.Error("expected unknown category lookup to fail")
	}
}

func TestIconFor(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		category string
		want     string
	}{
		{"Health & Fitness", "icons/health.png"},
		{"adventure & exploration", "icons/adventure.png"},
		{"Gardening", "icons/default.png"},
		{"", "icons/default.png"},
	}
	for _, tt := range tests {
		if got := c.IconFor(tt.category); got != tt.want {
			t.Errorf("IconFor(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := c.Normalize("health & fitness"); got != "Health & Fitness" {
		t.Errorf("Normalize() = %q", got)
	}
	if got := c.Normalize(" Gardening "); got != "Gardening" {
		t.Errorf("Normalize(unknown) = %q, want Gardening", got)
	}
	if got := c.Normalize(""); got != constants.CustomCategory {
		t.Errorf("Normalize(empty) = %q, want %q", got, constants.CustomCategory)
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	data := []byte(`
categories:
  - name: Reading
  - name: reading
`)
	if _, err := Parse(data); err == nil {
		t.Error("expected duplicate category error")
	}
	if _, err := Parse([]byte("categories: [{name: ''}]")); err == nil {
		t.Error("expected empty name error")
	}
	if _, err := Parse([]byte("categories: {")); err == nil {
		t.Error("expected YAML syntax error")
	}
}
