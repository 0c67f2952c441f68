// Package crypto implements the client-side encrypt-before-persist
// pipeline. Every compensation payload is encrypted on the device with
// a key derived from the user secret; neither the local store nor the
// transport layer ever sees plaintext.
package crypto

import "github.com/compvault/compvault/models"

// CipherService owns all device-side cryptography. It knows nothing
// about networking, storage, or users — it only derives keys and seals
// and opens payloads.
//
// Scheme:
//
//	salt = GenerateSalt()                   (once per device)
//	key  = DeriveKey(secret, salt)          (Argon2id, memory-hard)
//	blob = Encrypt(key, salt, plaintext)    (AES-256-GCM, fresh IV)
type CipherService interface {
	// GenerateSalt generates a random key-derivation salt (16 bytes).
	// The salt is not a secret; it travels alongside every ciphertext so
	// the owning device can re-derive the key.
	GenerateSalt() ([]byte, error)

	// DeriveKey derives a 256-bit encryption key from the user secret
	// and salt via Argon2id. The key exists only in device memory and is
	// never transmitted.
	DeriveKey(secret string, salt []byte) []byte

	// Encrypt seals plaintext under key with AES-256-GCM. A fresh random
	// IV is generated on every call; reusing an IV under the same key
	// would break confidentiality, so no caller-supplied IV is accepted.
	// The salt is recorded on the payload for later key re-derivation.
	Encrypt(key, salt, plaintext []byte) (models.EncryptedPayload, error)

	// Decrypt opens payload with key. It fails closed: a wrong key,
	// tampered ciphertext, or truncated blob yields [ErrAuthentication],
	// never partial plaintext.
	Decrypt(key []byte, payload models.EncryptedPayload) ([]byte, error)

	// EncryptValue marshals v to JSON and seals it via Encrypt.
	EncryptValue(key, salt []byte, v any) (models.EncryptedPayload, error)

	// DecryptValue opens payload via Decrypt and unmarshals the
	// plaintext JSON into target (a non-nil pointer, as for
	// encoding/json.Unmarshal).
	DecryptValue(key []byte, payload models.EncryptedPayload, target any) error
}
