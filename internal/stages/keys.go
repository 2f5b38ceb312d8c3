package stages

import "github.com/FranksOps/slant/internal/state"

// State keys shared by the stages.
const (
	KeyOriginalUserInput state.Key = "original_user_input"
	KeySearchParameters  state.Key = "search_parameters"
	KeyQuerySubject      state.Key = "query_subject"
	KeyArticles          state.Key = "articles"
	KeyHitCount          state.Key = "hit_count"
	KeySkippedHits       state.Key = "skipped_hits"
	KeyGroupedBySource   state.Key = "grouped_by_source"
	KeyComparisonReport  state.Key = "comparison_report"
)

func keys(k ...state.Key) []state.Key {
	return k
}
