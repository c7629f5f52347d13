package model

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// ChangeAdded indicates a key present only in the newer document
	ChangeAdded ChangeKind = iota
	// ChangeRemoved indicates a key present only in the older document
	ChangeRemoved
	// ChangeChanged indicates a single-valued key whose value differs
	ChangeChanged
	// ChangeCollectionAdded indicates one extra occurrence of an item under some key
	ChangeCollectionAdded
	// ChangeCollectionRemoved indicates one missing occurrence of an item under some key
	ChangeCollectionRemoved
)

// ChangeKind qualifies the type of difference between two tag documents
type ChangeKind uint

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeChanged:
		return "changed"
	case ChangeCollectionAdded:
		return "item added"
	case ChangeCollectionRemoved:
		return "item removed"
	default:
		return fmt.Sprintf("kind(%d)", uint(k))
	}
}

// Change is a single point of difference between two tag documents.
//
// Which fields are relevant depends on the kind:
//   - Added, Removed: Value
//   - Changed: Old, New
//   - CollectionAdded, CollectionRemoved: Item
//
// Count is the number of occurrences of an added item in the newer document.
// Replaying an addition onto a document already holding that many is a no-op.
type Change struct {
	Kind  ChangeKind
	Key   string
	Value []string
	Old   string
	New   string
	Item  string
	Count int
}

func (c Change) String() string {
	switch c.Kind {
	case ChangeAdded:
		return fmt.Sprintf("+%s: %s", c.Key, strings.Join(c.Value, ", "))
	case ChangeRemoved:
		return fmt.Sprintf("-%s: %s", c.Key, strings.Join(c.Value, ", "))
	case ChangeChanged:
		return fmt.Sprintf("~%s: %s -> %s", c.Key, c.Old, c.New)
	case ChangeCollectionAdded:
		return fmt.Sprintf("+%s[]: %s", c.Key, c.Item)
	case ChangeCollectionRemoved:
		return fmt.Sprintf("-%s[]: %s", c.Key, c.Item)
	default:
		return fmt.Sprintf("?%s", c.Key)
	}
}

// StructuralDiff describes all differences between two tag documents
type StructuralDiff struct {
	Changes []Change
}

// IsEmpty tells if the diff holds no change
func (d StructuralDiff) IsEmpty() bool {
	return len(d.Changes) == 0
}

// Len yields the number of changes
func (d StructuralDiff) Len() int {
	return len(d.Changes)
}

func (d StructuralDiff) filter(kinds ...ChangeKind) []Change {
	var res []Change
	for _, c := range d.Changes {
		for _, k := range kinds {
			if c.Kind == k {
				res = append(res, c)
				break
			}
		}
	}
	return res
}

// Additions are the changes adding keys or items
func (d StructuralDiff) Additions() []Change {
	return d.filter(ChangeAdded, ChangeCollectionAdded)
}

// Removals are the changes removing keys or items
func (d StructuralDiff) Removals() []Change {
	return d.filter(ChangeRemoved, ChangeCollectionRemoved)
}

// Modifications are the changes of scalar values
func (d StructuralDiff) Modifications() []Change {
	return d.filter(ChangeChanged)
}

// Keys touched by the diff, sorted
func (d StructuralDiff) Keys() []string {
	seen := make(map[string]struct{}, len(d.Changes))
	keys := make([]string, 0, len(d.Changes))
	for _, c := range d.Changes {
		if _, ok := seen[c.Key]; ok {
			continue
		}
		seen[c.Key] = struct{}{}
		keys = append(keys, c.Key)
	}
	sort.Strings(keys)
	return keys
}

// ComputeDiff yields the changes turning older into newer.
//
// Values held under the same key in both documents are compared as scalars
// when both hold exactly one element, and as multisets otherwise.
// Genres are always compared as multisets.
func ComputeDiff(older, newer Tags) StructuralDiff {
	var changes []Change
	for key, ov := range older {
		nv, ok := newer[key]
		if !ok {
			changes = append(changes, Change{Kind: ChangeRemoved, Key: key, Value: cloneValue(ov)})
			continue
		}
		if !IsGenreKey(key) && len(ov) == 1 && len(nv) == 1 {
			if ov[0] != nv[0] {
				changes = append(changes, Change{Kind: ChangeChanged, Key: key, Old: ov[0], New: nv[0]})
			}
			continue
		}
		changes = append(changes, collectionChanges(key, ov, nv)...)
	}
	for key, nv := range newer {
		if _, ok := older[key]; !ok {
			changes = append(changes, Change{Kind: ChangeAdded, Key: key, Value: cloneValue(nv)})
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Item < b.Item
	})
	return StructuralDiff{Changes: changes}
}

func collectionChanges(key string, older, newer []string) []Change {
	oc, nc := counts(older), counts(newer)
	var changes []Change
	for item, n := range nc {
		for i := oc[item]; i < n; i++ {
			changes = append(changes, Change{Kind: ChangeCollectionAdded, Key: key, Item: item, Count: n})
		}
	}
	for item, o := range oc {
		for i := nc[item]; i < o; i++ {
			changes = append(changes, Change{Kind: ChangeCollectionRemoved, Key: key, Item: item})
		}
	}
	return changes
}

// Apply replays the diff onto a copy of the target document.
//
// Keys referenced by the diff but missing from the target are scaffolded
// as empty sequences first. Scaffolded keys which are still empty after the
// replay and received no addition are dropped.
func (d StructuralDiff) Apply(target Tags) (Tags, error) {
	res := target.Clone()
	if d.IsEmpty() {
		return res, nil
	}

	scaffolded := make(map[string]bool)
	for _, c := range d.Changes {
		if _, ok := res[c.Key]; !ok {
			if _, done := scaffolded[c.Key]; !done {
				res[c.Key] = []string{}
				scaffolded[c.Key] = false
			}
		}
	}

	for _, c := range d.Changes {
		switch c.Kind {
		case ChangeAdded:
			res[c.Key] = cloneValue(c.Value)
		case ChangeRemoved:
			delete(res, c.Key)
		case ChangeChanged:
			res[c.Key] = []string{c.New}
		case ChangeCollectionAdded:
			if c.Count > 0 && occurrences(res[c.Key], c.Item) >= c.Count {
				break
			}
			res[c.Key] = append(res[c.Key], c.Item)
		case ChangeCollectionRemoved:
			res[c.Key] = removeOne(res[c.Key], c.Item)
			continue
		default:
			return nil, fmt.Errorf("%w: %v on key %q", UnknownChangeKind, c.Kind, c.Key)
		}
		if _, ok := scaffolded[c.Key]; ok && c.Kind != ChangeRemoved {
			scaffolded[c.Key] = true
		}
	}

	for key, filled := range scaffolded {
		if filled {
			continue
		}
		if v, ok := res[key]; ok && len(v) == 0 {
			delete(res, key)
		}
	}
	return res, nil
}

func occurrences(values []string, item string) int {
	n := 0
	for _, v := range values {
		if v == item {
			n++
		}
	}
	return n
}

func removeOne(values []string, item string) []string {
	for i, v := range values {
		if v == item {
			return append(values[:i:i], values[i+1:]...)
		}
	}
	return values
}
