package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// EncryptedSuffix marks files written by SealFile.
const EncryptedSuffix = ".enc"

// formatV1 is the leading byte of every ciphertext: AES-256-GCM with a
// 12-byte random nonce, bound to a caller label as associated data.
const formatV1 byte = 1

const fileLabel = "file"

var (
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrUnknownFormat      = errors.New("unknown ciphertext format")
	ErrKeyRequired        = errors.New("encrypted data requires DATA_ENCRYPTION_KEY")
)

// Service seals bank details and payslip files at rest. Without a key it
// passes data through unchanged.
type Service struct {
	gcm cipher.AEAD
}

func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	decoded, err := decodeKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{gcm: gcm}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.gcm != nil
}

// Encrypt seals plain under label. Opening it under any other label fails,
// so a ciphertext cannot be moved between columns.
func (s *Service) Encrypt(label string, plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return plain, nil
	}
	nonceSize := s.gcm.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plain)+s.gcm.Overhead())
	out[0] = formatV1
	if _, err := rand.Read(out[1:]); err != nil {
		return nil, err
	}
	return s.gcm.Seal(out, out[1:], plain, []byte(label)), nil
}

func (s *Service) Decrypt(label string, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return ciphertext, nil
	}
	if ciphertext[0] != formatV1 {
		return nil, ErrUnknownFormat
	}
	body := ciphertext[1:]
	nonceSize := s.gcm.NonceSize()
	if len(body) < nonceSize+s.gcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	return s.gcm.Open(nil, body[:nonceSize], body[nonceSize:], []byte(label))
}

func (s *Service) EncryptString(label, value string) ([]byte, error) {
	return s.Encrypt(label, []byte(value))
}

func (s *Service) DecryptString(label string, value []byte) (string, error) {
	plain, err := s.Decrypt(label, value)
	return string(plain), err
}

// SealFile encrypts the contents of a file about to be written as name and
// returns the name to store it under, name+".enc". Without a key both come
// back unchanged.
func (s *Service) SealFile(name string, data []byte) (string, []byte, error) {
	if !s.Configured() {
		return name, data, nil
	}
	sealed, err := s.Encrypt(fileLabel, data)
	if err != nil {
		return "", nil, err
	}
	return name + EncryptedSuffix, sealed, nil
}

// OpenFile reads a file and decrypts it when it carries the .enc suffix.
func (s *Service) OpenFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil || !strings.HasSuffix(path, EncryptedSuffix) {
		return data, err
	}
	if !s.Configured() {
		return nil, ErrKeyRequired
	}
	return s.Decrypt(fileLabel, data)
}

// decodeKey accepts 64 hex characters, base64 of 32 bytes, or a raw 32-byte
// string.
func decodeKey(raw string) ([]byte, error) {
	candidates := [][]byte{[]byte(raw)}
	if b, err := hex.DecodeString(raw); err == nil {
		candidates = append([][]byte{b}, candidates...)
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding} {
		if b, err := enc.DecodeString(raw); err == nil {
			candidates = append(candidates, b)
		}
	}
	for _, key := range candidates {
		if len(key) == 32 {
			return key, nil
		}
	}
	return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must decode to 32 bytes")
}
