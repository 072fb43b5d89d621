package core

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed default_categories.toml
var defaultCategoriesTOML string

type categoryFile struct {
	Category []Category `toml:"category"`
}

// DefaultCategories decodes the embedded onboarding category set.
func DefaultCategories() ([]Category, error) {
	var f categoryFile
	if _, err := toml.Decode(defaultCategoriesTOML, &f); err != nil {
		return nil, fmt.Errorf("decode default categories: %w", err)
	}
	for _, c := range f.Category {
		if !c.Type.IsValid() {
			return nil, fmt.Errorf("default category %s: %w", c.ID, ErrInvalidCategoryType)
		}
	}
	return f.Category, nil
}

// CategoryIndex is a lookup over a category set.
type CategoryIndex map[string]Category

func NewCategoryIndex(categories []Category) CategoryIndex {
	idx := make(CategoryIndex, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// Root returns the top-level category for id, following ParentID links.
// Unknown ids resolve to themselves.
func (idx CategoryIndex) Root(id string) Category {
	c, ok := idx[id]
	if !ok {
		return Category{ID: id, Name: id}
	}
	// Guard against cycles in user-edited data.
	for i := 0; i < 8 && c.ParentID != ""; i++ {
		parent, ok := idx[c.ParentID]
		if !ok {
			break
		}
		c = parent
	}
	return c
}

// GroupCategories pairs top-level categories of the given type with their children.
func GroupCategories(categories []Category, t CategoryType) []CategoryGroup {
	var groups []CategoryGroup
	pos := map[string]int{}
	for _, c := range categories {
		if c.Type != t || c.IsSubcategory {
			continue
		}
		pos[c.ID] = len(groups)
		groups = append(groups, CategoryGroup{Category: c})
	}
	for _, c := range categories {
		if !c.IsSubcategory {
			continue
		}
		if i, ok := pos[c.ParentID]; ok {
			groups[i].Subcategories = append(groups[i].Subcategories, c)
		}
	}
	return groups
}

type CategoryGroup struct {
	Category      Category   `json:"category"`
	Subcategories []Category `json:"subcategories"`
}
