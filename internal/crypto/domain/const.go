package domain

// Algorithm represents the AEAD algorithm used for encryption.
//
// Both supported algorithms provide authenticated encryption with 256-bit
// keys, 12-byte nonces and 16-byte authentication tags. AESGCM is the default
// and benefits from AES-NI acceleration; ChaCha20 is preferable on hardware
// without it.
type Algorithm string

const (
	// AESGCM is AES-256 in Galois/Counter Mode.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// Valid reports whether the algorithm is one of the supported values.
func (a Algorithm) Valid() bool {
	return a == AESGCM || a == ChaCha20
}
