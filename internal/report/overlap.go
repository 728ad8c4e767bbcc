package report

// overlapFraction reports how much of two half-open ranges overlap, as a
// fraction of the source range when isRev is set, of the destination range
// otherwise. The second return is false for invalid or disjoint ranges.
func overlapFraction(srcStart, srcEnd, dstStart, dstEnd int, isRev bool) (float32, bool) {
	if srcStart > srcEnd || dstStart > dstEnd {
		return 0, false
	}
	if dstStart > srcEnd || dstEnd < srcStart {
		return 0, false
	}

	start := srcStart
	if dstStart > srcStart {
		start = dstStart
	}
	end := srcEnd
	if dstEnd < srcEnd {
		end = dstEnd
	}
	if start > end {
		return 0, false
	}

	length := end - start
	denom := dstEnd - dstStart
	if isRev {
		denom = srcEnd - srcStart
	}

	return float32(length) / float32(denom), true
}
