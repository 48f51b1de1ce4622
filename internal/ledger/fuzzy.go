package ledger

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// installSearchData implements fuzzy.Source over slug and name.
type installSearchData []InstallRecord

func (d installSearchData) String(i int) string {
	return strings.ToLower(d[i].Slug + " " + d[i].Name)
}

func (d installSearchData) Len() int { return len(d) }

// FilterInstalls returns the records matching query, best match first. An
// empty query returns recs unchanged.
func FilterInstalls(recs []InstallRecord, query string) []InstallRecord {
	if strings.TrimSpace(query) == "" {
		return recs
	}
	matches := fuzzy.FindFrom(strings.ToLower(query), installSearchData(recs))
	out := make([]InstallRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, recs[m.Index])
	}
	return out
}
