package aggregator

import (
	"cmp"
	"slices"
	"strings"

	"tootfeed/models"
)

// Sort orders entries newest first. Entries with an unparsable timestamp
// sort after every dated entry. Ties are broken on the raw timestamp,
// then account url, username and content so the order is reproducible.
func Sort(entries []models.Entry) {
	slices.SortStableFunc(entries, compareEntries)
}

func compareEntries(a, b models.Entry) int {
	aZero, bZero := a.Published.IsZero(), b.Published.IsZero()
	switch {
	case aZero && !bZero:
		return 1
	case !aZero && bZero:
		return -1
	}

	if c := b.Published.Compare(a.Published); c != 0 {
		return c
	}
	if c := strings.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Or(
		strings.Compare(a.Account.URL, b.Account.URL),
		strings.Compare(a.Account.Username, b.Account.Username),
		strings.Compare(a.Content, b.Content),
	)
}
