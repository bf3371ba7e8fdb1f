package history

// Speed returns the scale speed of an entry in the selected unit.
func Speed(e Entry, mph bool) float64 {
	if mph {
		return e.Reading.ScaleMph
	}
	return e.Reading.ScaleKmh
}

// Average returns the mean scale speed of the last n entries. It returns 0
// when n is not positive or there are no entries.
func Average(entries []Entry, n int, mph bool) float64 {
	if n <= 0 || len(entries) == 0 {
		return 0
	}
	if n > len(entries) {
		n = len(entries)
	}

	var sum float64
	for _, e := range entries[len(entries)-n:] {
		sum += Speed(e, mph)
	}
	return sum / float64(n)
}

// Downsample decimates entries to at most maxPoints for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
func Downsample(dst []Entry, entries []Entry, maxPoints int) []Entry {
	if len(entries) <= maxPoints {
		if cap(dst) >= len(entries) {
			dst = dst[:len(entries)]
			copy(dst, entries)
			return dst
		}
		result := make([]Entry, len(entries))
		copy(result, entries)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Entry, 0, maxPoints)
	}

	step := float64(len(entries)) / float64(maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(entries) {
			dst = append(dst, entries[idx])
		}
	}

	// Always keep the latest reading visible.
	if len(dst) > 0 {
		dst[len(dst)-1] = entries[len(entries)-1]
	}

	return dst
}
