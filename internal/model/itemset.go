package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// keySeparator joins items into map keys. CheckItem rejects items that
// contain it.
const keySeparator = "\x1f"

// CheckItem reports whether item can be used as an itemset member
func CheckItem(item string) error {
	if item == "" {
		return errors.New("empty item name")
	}
	if strings.Contains(item, keySeparator) {
		return fmt.Errorf("item name %q contains the reserved U+001F character", item)
	}
	return nil
}

// Itemset is a canonical (sorted, duplicate-free) set of items
type Itemset []string

// NewItemset builds a canonical itemset from the given items
func NewItemset(items ...string) Itemset {
	out := make(Itemset, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// ItemsetFromKey is the inverse of Key
func ItemsetFromKey(key string) Itemset {
	if key == "" {
		return Itemset{}
	}
	return Itemset(strings.Split(key, keySeparator))
}

// Level returns the itemset size
func (s Itemset) Level() int {
	return len(s)
}

// Key returns a stable map key for the itemset
func (s Itemset) Key() string {
	return strings.Join(s, keySeparator)
}

// Format renders the itemset for reports. A single item is rendered bare,
// larger itemsets are joined with sep in ascending order.
func (s Itemset) Format(sep string) string {
	if len(s) == 1 {
		return s[0]
	}
	sorted := append([]string(nil), s...)
	sort.Strings(sorted)
	return strings.Join(sorted, sep)
}

// Contains reports whether item is a member of the itemset
func (s Itemset) Contains(item string) bool {
	i := sort.SearchStrings(s, item)
	return i < len(s) && s[i] == item
}

// Without returns a copy of the itemset with the given items removed
func (s Itemset) Without(other Itemset) Itemset {
	out := make(Itemset, 0, len(s))
	for _, item := range s {
		if !other.Contains(item) {
			out = append(out, item)
		}
	}
	return out
}

// Union returns the canonical union of two itemsets
func (s Itemset) Union(other Itemset) Itemset {
	all := make([]string, 0, len(s)+len(other))
	all = append(all, s...)
	all = append(all, other...)
	return NewItemset(all...)
}

// Equal reports whether both itemsets hold the same items
func (s Itemset) Equal(other Itemset) bool {
	return CompareItemsets(s, other) == 0
}

// CompareItemsets orders itemsets element-wise, a proper prefix sorting first.
func CompareItemsets(a, b Itemset) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// SortItemsets sorts itemsets in place using CompareItemsets
func SortItemsets(sets []Itemset) {
	sort.Slice(sets, func(i, j int) bool {
		return CompareItemsets(sets[i], sets[j]) < 0
	})
}
