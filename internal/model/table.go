package model

import "sort"

// ItemsetCount pairs an itemset with its estimated count
type ItemsetCount struct {
	Itemset Itemset `json:"itemset"`
	Count   float64 `json:"count"`
}

// ItemsetTable holds estimated counts of frequent itemsets grouped by level.
// A table is filled once by its producer and treated as read-only afterwards.
type ItemsetTable struct {
	Total  float64
	levels map[int]map[string]ItemsetCount
}

// NewItemsetTable creates an empty table for a population with the given total
func NewItemsetTable(total float64) *ItemsetTable {
	return &ItemsetTable{
		Total:  total,
		levels: make(map[int]map[string]ItemsetCount),
	}
}

// Set records the count for an itemset at its level
func (t *ItemsetTable) Set(itemset Itemset, count float64) {
	level := itemset.Level()
	entries, ok := t.levels[level]
	if !ok {
		entries = make(map[string]ItemsetCount)
		t.levels[level] = entries
	}
	entries[itemset.Key()] = ItemsetCount{Itemset: itemset, Count: count}
}

// Count returns the estimated count of an itemset and whether it is present
func (t *ItemsetTable) Count(itemset Itemset) (float64, bool) {
	entries, ok := t.levels[itemset.Level()]
	if !ok {
		return 0, false
	}
	entry, ok := entries[itemset.Key()]
	return entry.Count, ok
}

// Has reports whether the itemset is present
func (t *ItemsetTable) Has(itemset Itemset) bool {
	_, ok := t.Count(itemset)
	return ok
}

// Support returns count/Total for a present itemset
func (t *ItemsetTable) Support(itemset Itemset) (float64, bool) {
	count, ok := t.Count(itemset)
	if !ok || t.Total <= 0 {
		return 0, ok
	}
	return count / t.Total, true
}

// Levels returns the non-empty levels in ascending order
func (t *ItemsetTable) Levels() []int {
	levels := make([]int, 0, len(t.levels))
	for level, entries := range t.levels {
		if len(entries) > 0 {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	return levels
}

// Entries returns the entries at a level sorted by itemset
func (t *ItemsetTable) Entries(level int) []ItemsetCount {
	entries := t.levels[level]
	out := make([]ItemsetCount, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return CompareItemsets(out[i].Itemset, out[j].Itemset) < 0
	})
	return out
}

// Itemsets returns the itemsets at a level sorted ascending
func (t *ItemsetTable) Itemsets(level int) []Itemset {
	entries := t.Entries(level)
	out := make([]Itemset, len(entries))
	for i, entry := range entries {
		out[i] = entry.Itemset
	}
	return out
}

// Len returns the number of itemsets across all levels
func (t *ItemsetTable) Len() int {
	n := 0
	for _, entries := range t.levels {
		n += len(entries)
	}
	return n
}

// LevelLen returns the number of itemsets at a level
func (t *ItemsetTable) LevelLen(level int) int {
	return len(t.levels[level])
}
