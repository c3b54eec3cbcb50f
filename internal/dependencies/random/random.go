package random

import (
	"crypto/rand"
)

// Random generates strings for join codes and can be mocked for testing
type Random interface {
	// String returns length characters drawn uniformly from alphabet
	String(length int, alphabet string) string
}

// Source draws from the operating system's secure random source
type Source struct{}

// New creates a new Source
func New() *Source {
	return &Source{}
}

// String returns length characters drawn uniformly from alphabet. Bytes that
// would bias the result toward the start of the alphabet are discarded.
func (s *Source) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 || len(alphabet) > 256 {
		return ""
	}

	limit := 256 - 256%len(alphabet)
	result := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(result) < length {
		// crypto/rand.Read never returns an error on supported platforms
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == length {
				break
			}
		}
	}
	return string(result)
}
