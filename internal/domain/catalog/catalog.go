package catalog

import (
	"fmt"
	"strings"
)

// Catalog is an immutable, ordered set of entities. Safe for concurrent reads.
type Catalog struct {
	entities   []Entity
	byID       map[ID]int
	names      []string
	lowered    []string
	simplified []string
}

// New validates entities and builds the lookup tables. Order is preserved
// and decides which entity wins when two names resolve the same way.
func New(entities []Entity) (*Catalog, error) {
	if len(entities) == 0 {
		return nil, fmt.Errorf("%w: no entities", ErrInvalidCatalog)
	}
	c := &Catalog{
		entities:   make([]Entity, len(entities)),
		byID:       make(map[ID]int, len(entities)),
		names:      make([]string, len(entities)),
		lowered:    make([]string, len(entities)),
		simplified: make([]string, len(entities)),
	}
	copy(c.entities, entities)
	for i, e := range c.entities {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: entity %d has no id", ErrInvalidCatalog, i)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("%w: entity %s has no name", ErrInvalidCatalog, e.ID)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidCatalog, e.ID)
		}
		c.byID[e.ID] = i
		c.names[i] = e.Name
		c.lowered[i] = normalize(e.Name)
		c.simplified[i] = simplify(e.Name)
	}
	return c, nil
}

// Len returns the number of entities.
func (c *Catalog) Len() int { return len(c.entities) }

// Entities returns a copy of all entities in catalog order.
func (c *Catalog) Entities() []Entity {
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

// Names returns display names in catalog order. Callers must not modify it.
func (c *Catalog) Names() []string { return c.names }

// Get looks up an entity by id.
func (c *Catalog) Get(id ID) (Entity, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entity{}, false
	}
	return c.entities[i], true
}

// Resolve maps free text to an entity. An exact case-insensitive match on the
// trimmed text wins; otherwise both sides are reduced to [a-z0-9] and compared.
// The first entity in catalog order wins either pass.
func (c *Catalog) Resolve(raw string) (Entity, error) {
	wanted := normalize(raw)
	if wanted == "" {
		return Entity{}, ErrEntityNotFound
	}
	for i, n := range c.lowered {
		if n == wanted {
			return c.entities[i], nil
		}
	}
	wanted = simplify(raw)
	if wanted == "" {
		return Entity{}, ErrEntityNotFound
	}
	for i, n := range c.simplified {
		if n == wanted {
			return c.entities[i], nil
		}
	}
	return Entity{}, ErrEntityNotFound
}

// Pick returns the entity selected by seed. The same seed and catalog always
// give the same entity.
func (c *Catalog) Pick(seed uint64) Entity {
	return c.entities[seed%uint64(len(c.entities))]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func simplify(s string) string {
	s = normalize(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteByte(ch)
		}
	}
	return b.String()
}
