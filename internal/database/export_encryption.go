package database

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	exportSaltSize  = 16
	exportKeySize   = 32
	exportKDFRounds = 150000
	exportMagic     = "DBEX1\x00"
)

func deriveExportKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, exportKDFRounds, exportKeySize, sha256.New)
}

// encryptPayload seals data with AES-256-GCM under a key derived from the
// passphrase. Output layout: magic || salt || nonce || ciphertext.
func encryptPayload(data []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, exportSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	block, err := aes.NewCipher(deriveExportKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(exportMagic)+len(salt)+len(nonce)+len(data)+gcm.Overhead())
	out = append(out, exportMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

func decryptPayload(data []byte, passphrase string) ([]byte, error) {
	if len(data) < len(exportMagic)+exportSaltSize || string(data[:len(exportMagic)]) != exportMagic {
		return nil, fmt.Errorf("not an encrypted export")
	}
	data = data[len(exportMagic):]
	salt, data := data[:exportSaltSize], data[exportSaltSize:]

	block, err := aes.NewCipher(deriveExportKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("encrypted export truncated")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt export: wrong passphrase or corrupted file")
	}
	return plain, nil
}
