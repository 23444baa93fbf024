package commit

import "sort"

// lockRange is an absolute [start, start+length) byte range to take a
// data-file lock on.
type lockRange struct {
	start  int64
	length int64
}

// mergeRanges collapses a transaction's per-operation byte ranges into
// the smallest set of disjoint locking ranges: overlapping or
// touching operations share one lock, ranges with a gap between them
// stay separate (§4.5 step 4 — "if they are disjoint, lock each
// separately to minimize interference").
func mergeRanges(ops []Operation) []lockRange {
	if len(ops) == 0 {
		return nil
	}
	raw := make([]lockRange, len(ops))
	for i, op := range ops {
		raw[i] = lockRange{start: op.Offset, length: int64(len(op.Payload))}
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i].start < raw[j].start })

	merged := []lockRange{raw[0]}
	for _, r := range raw[1:] {
		last := &merged[len(merged)-1]
		lastEnd := last.start + last.length
		if r.start <= lastEnd {
			if end := r.start + r.length; end > lastEnd {
				last.length = end - last.start
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
