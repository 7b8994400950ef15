package memo

import "github.com/collisionlabs/cminer/internal/block"

// Fuse scans the image-sorted table for runs of equal image and
// cross-matches preimages within each run. A run of length 1 can't
// contribute anything and is skipped without allocating a sub-slice.
// Every index access is bounds-checked against len(table) so the
// pairwise scan can never read past the last row, regardless of where
// a run happens to end.
func Fuse(table []Triple) (block.Nonces, bool) {
	n := len(table)
	for start := 0; start < n; {
		end := start + 1
		for end < n && table[end].Image == table[start].Image {
			end++
		}

		if end-start >= 2 {
			if nonces, ok := fuseRun(table, start, end); ok {
				return nonces, true
			}
		}
		start = end
	}
	return block.Nonces{}, false
}

// fuseRun cross-matches every pair of distinct preimages within
// table[start:end), mutating Pre2 as matches accumulate and reporting
// a solution the moment a third distinct preimage appears for any row.
func fuseRun(table []Triple, start, end int) (block.Nonces, bool) {
	for i := start; i < end; i++ {
		for j := start; j < end; j++ {
			if i == j {
				continue
			}
			if table[i].Pre1 == table[j].Pre1 {
				continue
			}
			switch {
			case table[i].Pre2 == nil:
				v := table[j].Pre1
				table[i].Pre2 = &v
			case *table[i].Pre2 != table[j].Pre1:
				return block.Nonces{table[i].Pre1, *table[i].Pre2, table[j].Pre1}, true
			}
		}
	}
	return block.Nonces{}, false
}
