// Package password provides the one-way salted hashers used for stored
// credentials.
package password

// Hasher hashes and verifies passwords. Verify never errors: a malformed
// hash or a mismatch both report false.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// New returns the hasher named by algorithm ("bcrypt" or "argon2id").
// Unknown names fall back to bcrypt.
func New(algorithm string, bcryptCost int) Hasher {
	if algorithm == "argon2id" {
		return NewArgon2(DefaultArgon2Params)
	}
	return NewBcrypt(bcryptCost)
}
