package addr

import "sort"

// Splice joins slices together into one whose extent is the union of all
// the inputs. Later arguments take priority over earlier ones where extents
// overlap — mirrors champsim::splice's fold-left-by-extent-union behavior
// (inc/address.h's splice_fold_wrapper).
func Splice(slices ...Slice) Slice {
	if len(slices) == 0 {
		panic("addr: splice requires at least one slice")
	}

	acc := slices[0]
	for _, next := range slices[1:] {
		acc = spliceTwo(acc, next)
	}

	return acc
}

func spliceTwo(a, b Slice) Slice {
	lo := a.lo
	if b.lo < lo {
		lo = b.lo
	}
	hi := a.hi
	if b.hi > hi {
		hi = b.hi
	}

	value := (a.value << uint(a.lo-lo)) & bitmask(hi-lo)
	overlay := (b.value << uint(b.lo-lo)) & bitmask(hi-lo)
	mask := bitmask(b.hi-b.lo) << uint(b.lo-lo)
	value = (value &^ mask) | overlay

	return Slice{hi: hi, lo: lo, value: value}
}

// Partition splits [0, full.Width()) at the given cut points into
// contiguous, non-overlapping extents, lowest first. Used by round-trip
// tests that verify Splice undoes an arbitrary partitioning of a word
// (spec §8 invariant 2).
func Partition(full Slice, cuts ...int) []Slice {
	bounds := append([]int{0}, cuts...)
	bounds = append(bounds, full.Width())
	sort.Ints(bounds)

	parts := make([]Slice, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		parts = append(parts, full.Slice(bounds[i+1], bounds[i]))
	}

	return parts
}
