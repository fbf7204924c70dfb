// Package adaptive provides authenticated encryption with the cipher
// chosen for the host.
//
// AES-256-GCM is used where Go has hardware AES (amd64, arm64), and
// ChaCha20-Poly1305 elsewhere. Both take a 32-byte key. Ciphertexts
// carry their nonce as a prefix.
//
// Usage:
//
//	key, err := adaptive.ParseKey(os.Getenv("ASSETGW_LEDGER_WALLET_ENCRYPTION_KEY"))
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, []byte(label))
//	plaintext, err := c.Decrypt(sealed, []byte(label))
package adaptive
