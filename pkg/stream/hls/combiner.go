package hls

// CombineSegments concatenates segment buffers in order without re-encoding.
// The result length is the sum of the input lengths.
func CombineSegments(buffers [][]byte) []byte {
	total := 0
	for _, buf := range buffers {
		total += len(buf)
	}

	combined := make([]byte, 0, total)
	for _, buf := range buffers {
		combined = append(combined, buf...)
	}
	return combined
}
