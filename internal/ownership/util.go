package ownership

import (
	"slices"
	"strings"
)

func sortInfos(infos []*Info) {
	slices.SortFunc(infos, func(a, b *Info) int {
		if a.Defined.Before(b.Defined) {
			return -1
		}
		if b.Defined.Before(a.Defined) {
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func sortBorrows(bs []BorrowInfo) {
	slices.SortFunc(bs, func(a, b BorrowInfo) int {
		return int(a.ID) - int(b.ID)
	})
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
