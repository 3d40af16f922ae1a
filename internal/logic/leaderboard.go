package logic

import (
	"sort"
	"strings"

	"github.com/thinkly/thinkly-api/internal/models"
)

const (
	// TopSlice is how many leading entries every viewer sees.
	TopSlice = 10
	// ExtendLimit is the first position that is shown as a detached window
	// instead of extending the top slice.
	ExtendLimit = 12
)

// RankEntries sorts entries by score descending and assigns standard
// competition ranks (1, 1, 3, 4, ...). Equal scores are ordered by user id
// ascending, entries without a user after those with one, then by display
// name; remaining ties keep their input order.
func RankEntries(entries []models.LeaderboardEntry) []models.RankedEntry {
	if len(entries) == 0 {
		return []models.RankedEntry{}
	}

	sorted := make([]models.LeaderboardEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		switch {
		case a.UserID != nil && b.UserID != nil:
			if *a.UserID != *b.UserID {
				return *a.UserID < *b.UserID
			}
		case a.UserID != nil:
			return true
		case b.UserID != nil:
			return false
		}
		return strings.Compare(a.DisplayName, b.DisplayName) < 0
	})

	ranked := make([]models.RankedEntry, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		if i > 0 && e.TotalScore == sorted[i-1].TotalScore {
			rank = ranked[i-1].Rank
		}
		ranked[i] = models.RankedEntry{
			Rank:           rank,
			CompetitionID:  e.CompetitionID,
			UserID:         e.UserID,
			DisplayName:    e.DisplayName,
			TotalScore:     e.TotalScore,
			ProblemsSolved: e.ProblemsSolved,
			ElapsedTime:    e.Elapsed(),
		}
	}
	return ranked
}

// FindViewer returns the 0-based position of the viewer in a ranked board,
// or -1 when the viewer is nil or absent.
func FindViewer(ranked []models.RankedEntry, viewer *int64) int {
	if viewer == nil {
		return -1
	}
	for i := range ranked {
		if ranked[i].UserID != nil && *ranked[i].UserID == *viewer {
			return i
		}
	}
	return -1
}

// WindowEntries selects what a viewer sees of a ranked board: the top ten,
// extended to reach a viewer in 11th or 12th position, or followed by a
// detached three-entry window around a viewer further down. Positions are
// indexes into ranked, not rank values.
func WindowEntries(ranked []models.RankedEntry, viewer *int64) models.LeaderboardWindow {
	if len(ranked) == 0 {
		return models.LeaderboardWindow{Entries: []models.RankedEntry{}}
	}

	pos := FindViewer(ranked, viewer)

	switch {
	case pos < TopSlice:
		n := min(TopSlice, len(ranked))
		return models.LeaderboardWindow{Entries: cloneRanked(ranked[:n])}

	case pos < ExtendLimit:
		return models.LeaderboardWindow{Entries: cloneRanked(ranked[:pos+1])}
	}

	out := make([]models.RankedEntry, 0, TopSlice+3)
	out = append(out, ranked[:TopSlice]...)
	// pos >= ExtendLimit, so pos-1 is never inside the top slice.
	out = append(out, ranked[pos-1], ranked[pos])
	if pos+1 < len(ranked) {
		out = append(out, ranked[pos+1])
	}
	return models.LeaderboardWindow{Entries: out, ShowSeparator: true}
}

// GroupByCompetition splits entries into one ranked board per run of equal
// competition ids. Boundaries are adjacency based: a competition that
// reappears later in the input starts a new group.
func GroupByCompetition(entries []models.LeaderboardEntry) []models.CompetitionLeaderboard {
	groups := []models.CompetitionLeaderboard{}
	if len(entries) == 0 {
		return groups
	}

	start := 0
	flush := func(end int) {
		first := entries[start]
		groups = append(groups, models.CompetitionLeaderboard{
			CompetitionID:   first.CompetitionID,
			CompetitionName: first.CompetitionName,
			Entries:         RankEntries(entries[start:end]),
		})
		start = end
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].CompetitionID != entries[i-1].CompetitionID {
			flush(i)
		}
	}
	flush(len(entries))

	return groups
}

// PaginateEntries returns one page of a ranked board. Pages are 1-based. A
// limit below 1 means the default of 25 and larger limits are capped at 100.
func PaginateEntries(ranked []models.RankedEntry, page, limit int) ([]models.RankedEntry, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit
	if offset >= len(ranked) {
		return []models.RankedEntry{}, page, limit
	}
	end := min(offset+limit, len(ranked))
	return cloneRanked(ranked[offset:end]), page, limit
}

func cloneRanked(in []models.RankedEntry) []models.RankedEntry {
	out := make([]models.RankedEntry, len(in))
	copy(out, in)
	return out
}
