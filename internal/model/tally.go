package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Count is a single name → count entry.
type Count struct {
	Name  string
	Count int
}

// Tally is an ordered list of counts. It marshals to a JSON object whose keys
// keep the slice order, so reports list the largest entries first.
//
// Design decision: We use a slice rather than a map[string]int because
// encoding/json sorts map keys alphabetically, while reports need buildings
// largest-first and categories in table order.
type Tally []Count

// Get returns the count recorded for name, or 0.
func (t Tally) Get(name string) int {
	for _, c := range t {
		if c.Name == name {
			return c.Count
		}
	}
	return 0
}

// Total returns the sum of all counts.
func (t Tally) Total() int {
	total := 0
	for _, c := range t {
		total += c.Count
	}
	return total
}

// SortByCount orders entries by descending count, then ascending name.
func (t Tally) SortByCount() {
	sort.SliceStable(t, func(i, j int) bool {
		if t[i].Count != t[j].Count {
			return t[i].Count > t[j].Count
		}
		return t[i].Name < t[j].Name
	})
}

// TallyFromMap builds a Tally sorted by count from a map.
func TallyFromMap(m map[string]int) Tally {
	t := make(Tally, 0, len(m))
	for name, n := range m {
		t = append(t, Count{Name: name, Count: n})
	}
	t.SortByCount()
	return t
}

// MarshalJSON implements json.Marshaler.
func (t Tally) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, c.Name, c.Count); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping key order.
func (t *Tally) UnmarshalJSON(data []byte) error {
	out := Tally{}
	err := decodeObject(data, func(key string, dec *json.Decoder) error {
		var n int
		if err := dec.Decode(&n); err != nil {
			return err
		}
		out = append(out, Count{Name: key, Count: n})
		return nil
	})
	if err != nil {
		return err
	}
	*t = out
	return nil
}

// CategoryTally is the per-display-name breakdown of one category.
type CategoryTally struct {
	Category Category
	Items    Tally
}

// Factory is the per-category inventory, ordered by CategoryOrder.
type Factory []CategoryTally

// Get returns the tally for a category, or nil when the category is absent.
func (f Factory) Get(c Category) Tally {
	for _, ct := range f {
		if ct.Category == c {
			return ct.Items
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Factory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ct := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, ct.Category.String(), ct.Items); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping key order.
func (f *Factory) UnmarshalJSON(data []byte) error {
	out := Factory{}
	err := decodeObject(data, func(key string, dec *json.Decoder) error {
		var items Tally
		if err := dec.Decode(&items); err != nil {
			return err
		}
		out = append(out, CategoryTally{Category: Category(key), Items: items})
		return nil
	})
	if err != nil {
		return err
	}
	*f = out
	return nil
}

// Totals holds per-category totals and the grand total.
// Only categories with at least one object are listed.
type Totals struct {
	Categories Tally
	All        int
}

// Get returns the total for a category.
func (t Totals) Get(c Category) int {
	return t.Categories.Get(c.String())
}

// MarshalJSON emits the categories in order followed by "all".
func (t Totals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, c := range t.Categories {
		if err := writeMember(&buf, c.Name, c.Count); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := writeMember(&buf, "all", t.All); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Totals) UnmarshalJSON(data []byte) error {
	var raw Tally
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Totals{Categories: Tally{}}
	for _, c := range raw {
		if c.Name == "all" {
			out.All = c.Count
			continue
		}
		out.Categories = append(out.Categories, c)
	}
	*t = out
	return nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

var errNotObject = errors.New("expected JSON object")

// decodeObject walks the members of a JSON object in document order.
func decodeObject(data []byte, member func(key string, dec *json.Decoder) error) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		if err := member(key, dec); err != nil {
			return fmt.Errorf("member %q: %w", key, err)
		}
	}
	_, err = dec.Token()
	return err
}
