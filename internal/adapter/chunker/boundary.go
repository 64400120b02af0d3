package chunker

// Ordered from strongest to weakest break.
var defaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", " "}

// boundary pulls a window end back to the latest separator in the back half of
// the window. The result never drops to cursor+overlap or below, which keeps
// the next cursor moving forward. If no separator qualifies the hard end is kept.
func boundary(runes []rune, cursor, end, overlap int, separators []string) int {
	lo := cursor + (end-cursor)/2
	if floor := cursor + overlap + 1; lo < floor {
		lo = floor
	}
	if lo > end {
		return end
	}

	for _, sep := range separators {
		if cut := lastSeparatorEnd(runes, lo, end, []rune(sep)); cut > 0 {
			return cut
		}
	}
	return end
}

// lastSeparatorEnd returns the largest position p in [lo, end] where sep ends, or -1.
func lastSeparatorEnd(runes []rune, lo, end int, sep []rune) int {
	for p := end; p >= lo; p-- {
		start := p - len(sep)
		if start < 0 {
			break
		}
		if matchAt(runes, start, sep) {
			return p
		}
	}
	return -1
}

func matchAt(runes []rune, at int, sep []rune) bool {
	for i, r := range sep {
		if runes[at+i] != r {
			return false
		}
	}
	return true
}
