package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type Skill struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
}

// DefaultSkills is served while the skills table is empty.
var DefaultSkills = []Skill{
	{Name: "Plumbing", Description: "Pipes, taps, leaks and water heaters", Category: "Home"},
	{Name: "Electrical", Description: "Wiring, sockets and lighting", Category: "Home"},
	{Name: "Cleaning", Description: "Residential and office cleaning", Category: "Home"},
	{Name: "Gardening", Description: "Lawn care, planting and trimming", Category: "Outdoor"},
	{Name: "Painting", Description: "Interior and exterior painting", Category: "Home"},
	{Name: "Handyman", Description: "Small repairs and installations", Category: "Home"},
	{Name: "Carpentry", Description: "Furniture, doors and woodwork", Category: "Home"},
}

type SkillRepo interface {
	ListSkills(ctx context.Context, accessToken string) ([]Skill, error)
}

func (su *SupabaseRepo) ListSkills(ctx context.Context, accessToken string) ([]Skill, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(SkillsTable).
		Select("*", "", false).
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	skills, err := decodeRows[Skill](raw)
	if err != nil {
		return nil, err
	}
	if len(skills) == 0 {
		return DefaultSkills, nil
	}
	return skills, nil
}

// NormalizeSkills trims and de-duplicates a selection against the catalogue,
// returning the catalogue spelling of each skill. Unknown names are an error.
func NormalizeSkills(selected []string, catalogue []Skill) ([]string, error) {
	byName := make(map[string]string, len(catalogue))
	for _, s := range catalogue {
		byName[strings.ToLower(s.Name)] = s.Name
	}

	seen := make(map[string]struct{}, len(selected))
	out := make([]string, 0, len(selected))
	for _, raw := range selected {
		name, ok := byName[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return nil, NewValidationError("Skills", fmt.Sprintf("Unknown skill %q", strings.TrimSpace(raw)))
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, NewValidationError("Skills", "Please select at least one skill")
	}
	return out, nil
}

// CategoryName returns the catalogue spelling of name, matching case
// insensitively.
func CategoryName(name string, catalogue []Skill) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range catalogue {
		if strings.EqualFold(s.Name, name) {
			return s.Name, true
		}
	}
	return "", false
}
