package domain

// KDFParams records the Argon2id cost parameters used for one key derivation.
//
// The parameters are stored alongside each wrapped key so that raising the
// configured costs later never breaks existing wrappings: unwrap always
// re-derives with the parameters recorded at wrap time, not the current
// configuration.
type KDFParams struct {
	Time      uint32 // Argon2id iteration count
	MemoryKiB uint32 // Memory cost in KiB
	Threads   uint8  // Degree of parallelism
}

// DefaultKDFParams returns the Argon2id parameters recommended by OWASP:
// 1 iteration, 64 MiB memory, 4 threads.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:      1,
		MemoryKiB: 64 * 1024,
		Threads:   4,
	}
}

// Valid reports whether all cost parameters are non-zero.
func (p KDFParams) Valid() bool {
	return p.Time > 0 && p.MemoryKiB > 0 && p.Threads > 0
}
