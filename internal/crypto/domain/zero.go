package domain

// Zero overwrites a byte slice with zeros to scrub sensitive data from memory.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
