package engine

import "strings"

// DraftOption is one entry of a vendor preset's option table.
type DraftOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayName is the human-readable name of the option.
func (o DraftOption) DisplayName() string {
	if o.Name == "" {
		return StripNamespace(o.ID)
	}
	return StripNamespace(o.Name)
}

// StripNamespace removes the civilization namespace prefix when present.
func StripNamespace(s string) string {
	return strings.TrimPrefix(s, CivNamespace)
}

// OptionTable indexes a preset's options by id while keeping preset order.
// The nil table is valid and resolves every id by prefix stripping alone.
type OptionTable struct {
	options []DraftOption
	byID    map[string]int
}

func NewOptionTable(options []DraftOption) *OptionTable {
	t := &OptionTable{
		options: make([]DraftOption, 0, len(options)),
		byID:    make(map[string]int, len(options)),
	}
	for _, o := range options {
		if o.ID == "" {
			continue
		}
		if _, exists := t.byID[o.ID]; exists {
			continue
		}
		t.byID[o.ID] = len(t.options)
		t.options = append(t.options, o)
	}
	return t
}

func (t *OptionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.options)
}

func (t *OptionTable) Lookup(id string) (DraftOption, bool) {
	if t == nil {
		return DraftOption{}, false
	}
	i, ok := t.byID[id]
	if !ok {
		return DraftOption{}, false
	}
	return t.options[i], true
}

// Options returns a copy of the table in preset order.
func (t *OptionTable) Options() []DraftOption {
	if t == nil {
		return nil
	}
	out := make([]DraftOption, len(t.options))
	copy(out, t.options)
	return out
}

// Resolve maps an option id to its display name. It never fails: ids missing from the
// table degrade to the id with the namespace prefix stripped.
func (t *OptionTable) Resolve(optionID string) string {
	if o, ok := t.Lookup(optionID); ok {
		return o.DisplayName()
	}
	return StripNamespace(optionID)
}

// MapOptionNames lists the display names of every non-civilization option, deduplicated,
// in preset order.
func (t *OptionTable) MapOptionNames() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(t.options))
	names := make([]string, 0, len(t.options))
	for _, o := range t.options {
		if strings.HasPrefix(o.ID, CivNamespace) || IsHidden(o.ID) {
			continue
		}
		name := o.DisplayName()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
