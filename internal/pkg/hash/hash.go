package hash

// Hash produces a digest of a value and checks a value against a digest.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
