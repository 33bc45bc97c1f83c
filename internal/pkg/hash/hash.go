package hash

// Hash produces a digest for a secret and verifies plaintext against it.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
