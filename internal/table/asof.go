package table

import "sort"

// Nearest returns the index in ascending stamps closest to ts, preferring the
// earlier entry on ties. It returns -1 when stamps is empty.
func Nearest(stamps []int64, ts int64) int {
	if len(stamps) == 0 {
		return -1
	}
	i := sort.Search(len(stamps), func(i int) bool { return stamps[i] >= ts })
	switch {
	case i == 0:
		return 0
	case i == len(stamps):
		return len(stamps) - 1
	}
	if stamps[i]-ts < ts-stamps[i-1] {
		return i
	}
	return i - 1
}

// JoinNearest pairs every left row with the right row whose key is closest in
// time. Left rows keep their order and count; attach receives ok=false when
// right is empty.
func JoinNearest[L, R any](left []L, right []R, leftKey func(L) int64, rightKey func(R) int64, attach func(*L, R, bool)) {
	sorted := make([]R, len(right))
	copy(sorted, right)
	sort.SliceStable(sorted, func(i, j int) bool { return rightKey(sorted[i]) < rightKey(sorted[j]) })

	stamps := make([]int64, len(sorted))
	for i, r := range sorted {
		stamps[i] = rightKey(r)
	}

	var zero R
	for i := range left {
		idx := Nearest(stamps, leftKey(left[i]))
		if idx < 0 {
			attach(&left[i], zero, false)
			continue
		}
		attach(&left[i], sorted[idx], true)
	}
}
