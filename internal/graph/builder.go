package graph

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Record is a loosely typed entity or relationship record as supplied
// by upstream extraction. Nothing about it is assumed well-formed.
type Record = map[string]any

// EntityTable maps entity ids to their normalized records, preserving
// first-seen input order for stable ranking tie-breaks.
type EntityTable struct {
	byID  map[string]*Entity
	order []string
}

// Get returns the entity for id.
func (t *EntityTable) Get(id string) (*Entity, bool) {
	e, ok := t.byID[id]
	return e, ok
}

// IDs returns entity ids in first-seen input order.
func (t *EntityTable) IDs() []string {
	return t.order
}

// Len returns the number of entities in the table.
func (t *EntityTable) Len() int {
	return len(t.order)
}

// entityTypes is the closed set of recognized entity types. Anything
// else normalizes to organization.
var entityTypes = map[string]bool{
	"person":       true,
	"corporation":  true,
	"government":   true,
	"organization": true,
}

// typeKeywords drives type inference for records that carry no type
// tag. Matching is case-insensitive substring matching on the display
// name, in this fixed order.
var typeKeywords = []struct {
	entityType string
	keywords   []string
}{
	{"corporation", []string{"corp", "inc", "llc", "company", "enterprises"}},
	{"government", []string{"senator", "congress", "white house", "administration", "agency", "ministry", "department"}},
	{"person", []string{"ceo", "president", "director", "chairman", "executive"}},
}

// InferEntityType returns the entity type suggested by keywords in the
// display name, or organization when nothing matches.
func InferEntityType(name string) string {
	lower := strings.ToLower(name)
	for _, group := range typeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.entityType
			}
		}
	}
	return "organization"
}

// NormalizeEntityType lowercases and validates a supplied type tag,
// falling back to name-based inference for absent tags and to
// organization for unrecognized ones.
func NormalizeEntityType(rawType, name string) string {
	t := strings.ToLower(strings.TrimSpace(rawType))
	if t == "" {
		return InferEntityType(name)
	}
	if entityTypes[t] {
		return t
	}
	return "organization"
}

// Slugify reduces a display name to a lowercase identifier fragment
// keeping only letters, digits, '_' and '-'.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// rawEntity is the decode target for one loose entity record. Pointer
// fields distinguish absent from empty, and the remainder collects
// opaque descriptive attributes untouched.
type rawEntity struct {
	ID         *string        `mapstructure:"id"`
	Name       *string        `mapstructure:"name"`
	Type       *string        `mapstructure:"type"`
	Attributes map[string]any `mapstructure:",remain"`
}

// rawRelationship is the decode target for one loose relationship
// record.
type rawRelationship struct {
	Source     *string        `mapstructure:"source"`
	Target     *string        `mapstructure:"target"`
	Type       *string        `mapstructure:"type"`
	Strength   *float64       `mapstructure:"strength"`
	Attributes map[string]any `mapstructure:",remain"`
}

func decodeLoose(input Record, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building record decoder: %w", err)
	}
	return dec.Decode(input)
}

// DefaultStrength is applied to relationships that carry no strength.
const DefaultStrength = 0.5

// Build normalizes raw entity and relationship records into a graph
// and an entity table. Malformed individual records are repaired or
// dropped, never surfaced as errors. Relationships below minStrength,
// self-referential ones, and ones with a dangling endpoint are
// excluded; repeated records between the same pair collapse to the
// strongest edge.
func Build(entities []Record, relationships []Record, minStrength float64) (*Graph, *EntityTable) {
	table := &EntityTable{byID: make(map[string]*Entity, len(entities))}
	g := New()

	for i, rec := range entities {
		var raw rawEntity
		if err := decodeLoose(rec, &raw); err != nil {
			continue
		}

		name, ok := deriveName(raw.Name, i)
		if !ok {
			continue
		}

		id := deriveID(raw.ID, name, i, table)
		typ := ""
		if raw.Type != nil {
			typ = *raw.Type
		}

		entity := &Entity{
			ID:         id,
			Name:       name,
			Type:       NormalizeEntityType(typ, name),
			Attributes: raw.Attributes,
		}

		if _, seen := table.byID[id]; !seen {
			table.order = append(table.order, id)
		}
		// Last write wins for attributes on duplicate ids.
		table.byID[id] = entity
	}

	for _, id := range table.order {
		g.AddNode(id)
	}

	for _, rec := range relationships {
		var raw rawRelationship
		if err := decodeLoose(rec, &raw); err != nil {
			continue
		}
		if raw.Source == nil || raw.Target == nil {
			continue
		}

		source, target := *raw.Source, *raw.Target
		if _, ok := table.byID[source]; !ok {
			continue
		}
		if _, ok := table.byID[target]; !ok {
			continue
		}
		if source == target {
			continue
		}

		strength := DefaultStrength
		if raw.Strength != nil {
			strength = *raw.Strength
		}
		if strength < minStrength {
			continue
		}

		relType := ""
		if raw.Type != nil {
			relType = *raw.Type
		}

		g.AddEdge(&Edge{
			Source:     source,
			Target:     target,
			Type:       relType,
			Strength:   strength,
			Attributes: raw.Attributes,
		})
	}

	return g, table
}

// deriveName normalizes a display name. An absent name gets a
// positional placeholder; a name that is present but empty after
// trimming marks an underivable record, which is dropped.
func deriveName(raw *string, position int) (string, bool) {
	if raw == nil {
		return fmt.Sprintf("Entity %d", position), true
	}
	name := strings.TrimSpace(*raw)
	if name == "" {
		return "", false
	}
	return name, true
}

// deriveID returns the record's own id when present, otherwise a slug
// of the name plus the record's ordinal position. Synthesized ids are
// kept unique within the run even against explicit ids.
func deriveID(raw *string, name string, position int, table *EntityTable) string {
	if raw != nil && strings.TrimSpace(*raw) != "" {
		return strings.TrimSpace(*raw)
	}

	slug := Slugify(name)
	if slug == "" {
		slug = "entity"
	}
	id := fmt.Sprintf("%s-%d", slug, position)
	for n := 1; ; n++ {
		if _, taken := table.byID[id]; !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d-%d", slug, position, n)
	}
}
