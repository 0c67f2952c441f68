package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/compvault/compvault/models"
)

// ErrAuthentication is returned when a payload cannot be authenticated:
// wrong key, tampered ciphertext, or a truncated blob. Callers must
// treat the record as unreadable rather than retry with the same key.
var ErrAuthentication = errors.New("payload authentication failed")

const saltLen = 16

// Params are the Argon2id tuning parameters. Stored on the service so
// they can be adjusted per deployment target (e.g. mobile vs. desktop);
// zero fields fall back to [DefaultParams].
type Params struct {
	// Time is the iteration count.
	Time uint32
	// MemoryKiB is the memory cost in KiB.
	MemoryKiB uint32
	// Threads is the parallelism degree.
	Threads uint8
	// KeyLen is the derived key length in bytes.
	KeyLen uint32
}

// DefaultParams returns the Argon2id parameters recommended by OWASP
// (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
//
// These keep derivation at interactive latency (sub-second on commodity
// hardware) while staying expensive for offline brute force.
func DefaultParams() Params {
	return Params{
		Time:      1,
		MemoryKiB: 64 * 1024, // 64 MiB
		Threads:   4,
		KeyLen:    32, // 256 bits
	}
}

// cipherService is the private implementation of [CipherService].
type cipherService struct {
	params Params
}

// NewCipherService constructs a [CipherService] with the given Argon2id
// parameters. Zero-valued fields are replaced with [DefaultParams].
func NewCipherService(params Params) CipherService {
	defaults := DefaultParams()
	if params.Time == 0 {
		params.Time = defaults.Time
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = defaults.MemoryKiB
	}
	if params.Threads == 0 {
		params.Threads = defaults.Threads
	}
	if params.KeyLen == 0 {
		params.KeyLen = defaults.KeyLen
	}

	return &cipherService{params: params}
}

// GenerateSalt implements [CipherService]. It reads 16 random bytes
// from the OS CSPRNG. Returns an error if the random read fails.
func (c *cipherService) GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey implements [CipherService]. It derives a key from secret
// and salt using Argon2id with the parameters stored on the receiver.
func (c *cipherService) DeriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(secret),
		salt,
		c.params.Time,
		c.params.MemoryKiB,
		c.params.Threads,
		c.params.KeyLen,
	)
}

// Encrypt implements [CipherService]. The IV is generated fresh from
// the CSPRNG on every call and returned separately from the ciphertext
// (not prepended), matching the wire format of
// [models.EncryptedPayload]. Returns an error if cipher construction or
// the random read fails.
func (c *cipherService) Encrypt(key, salt, plaintext []byte) (models.EncryptedPayload, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return models.EncryptedPayload{}, err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("generate iv: %w", err)
	}

	return models.EncryptedPayload{
		Data: gcm.Seal(nil, iv, plaintext, nil),
		IV:   iv,
		Salt: salt,
	}, nil
}

// Decrypt implements [CipherService]. Any authentication or framing
// problem is reported as [ErrAuthentication]; the function never
// returns partial plaintext.
func (c *cipherService) Decrypt(key []byte, payload models.EncryptedPayload) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(payload.IV) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad iv length %d", ErrAuthentication, len(payload.IV))
	}
	if len(payload.Data) < gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrAuthentication)
	}

	// An Open failure almost always means the user secret (and hence the
	// derived key) is wrong, or the blob was corrupted in transit.
	plaintext, err := gcm.Open(nil, payload.IV, payload.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	return plaintext, nil
}

// EncryptValue implements [CipherService].
func (c *cipherService) EncryptValue(key, salt []byte, v any) (models.EncryptedPayload, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("marshal value: %w", err)
	}

	return c.Encrypt(key, salt, plaintext)
}

// DecryptValue implements [CipherService].
func (c *cipherService) DecryptValue(key []byte, payload models.EncryptedPayload, target any) error {
	plaintext, err := c.Decrypt(key, payload)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}

	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}
