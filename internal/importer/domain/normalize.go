package domain

// Collection holds the raw per-shelf entry lists as scraped from the
// external site. Entries carry no shelf flags yet; membership in a list is
// what marks the flag during merging.
type Collection struct {
	Played   []StagedGameEntry
	Playing  []StagedGameEntry
	Backlog  []StagedGameEntry
	Wishlist []StagedGameEntry
}

// Size returns the combined raw entry count across all four shelves.
func (c *Collection) Size() int {
	return len(c.Played) + len(c.Playing) + len(c.Backlog) + len(c.Wishlist)
}

// MergeCollection folds the four shelf lists into one deduplicated entry
// list keyed by external game id. The first occurrence of an id creates the
// entry; every shelf it appears on ORs the matching flag in. Output order is
// first-seen order, so external ids are unique in the result.
func MergeCollection(c Collection) []StagedGameEntry {
	byID := make(map[int64]int)
	var merged []StagedGameEntry

	mark := func(entries []StagedGameEntry, set func(*StagedGameEntry)) {
		for _, e := range entries {
			idx, seen := byID[e.ExternalGameID]
			if !seen {
				idx = len(merged)
				byID[e.ExternalGameID] = idx
				merged = append(merged, e)
				merged[idx].Played = false
				merged[idx].Playing = false
				merged[idx].Backlog = false
				merged[idx].Wishlist = false
			}
			set(&merged[idx])
		}
	}

	mark(c.Played, func(e *StagedGameEntry) { e.Played = true })
	mark(c.Playing, func(e *StagedGameEntry) { e.Playing = true })
	mark(c.Backlog, func(e *StagedGameEntry) { e.Backlog = true })
	mark(c.Wishlist, func(e *StagedGameEntry) { e.Wishlist = true })

	return merged
}
