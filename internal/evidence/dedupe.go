package evidence

import (
	"sort"

	"github.com/hyperifyio/rosterscan/internal/candidate"
)

// Dedupe merges records sharing the same candidate.Key. The surviving record
// is the one with the highest confidence; on a tie the one carrying an
// evidence snippet wins. Empty snippet and contact fields of the survivor are
// backfilled from the discarded duplicates. Groups are returned in the order
// their first member appeared.
func Dedupe(records []candidate.Record) []candidate.Record {
	best := make(map[candidate.Key]candidate.Record, len(records))
	order := make([]candidate.Key, 0, len(records))
	for _, r := range records {
		k := r.Key()
		cur, ok := best[k]
		if !ok {
			best[k] = r
			order = append(order, k)
			continue
		}
		best[k] = merge(cur, r)
	}
	out := make([]candidate.Record, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

func merge(a, b candidate.Record) candidate.Record {
	winner, loser := a, b
	if b.Confidence > a.Confidence || (b.Confidence == a.Confidence && !a.HasSnippet() && b.HasSnippet()) {
		winner, loser = b, a
	}
	if !winner.HasSnippet() && loser.HasSnippet() {
		winner.EvidenceSnippet = loser.EvidenceSnippet
	}
	if winner.Email == nil {
		winner.Email = loser.Email
	}
	if winner.Phone == nil {
		winner.Phone = loser.Phone
	}
	if winner.Location == nil {
		winner.Location = loser.Location
	}
	return winner
}

// SortByName orders records by normalized name, then specialty and training
// year, for callers that need a stable listing.
func SortByName(records []candidate.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ki, kj := records[i].Key(), records[j].Key()
		if ki.Name != kj.Name {
			return ki.Name < kj.Name
		}
		if ki.Specialty != kj.Specialty {
			return ki.Specialty < kj.Specialty
		}
		return ki.TrainingYear < kj.TrainingYear
	})
}
