package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/felixgeelhaar/kavach/internal/errors"
)

const (
	pbkdf2Iterations = 100000
	keyLength        = 32
	saltLength       = 16
)

// fileLayout is the on-disk form of a FileStore
type fileLayout struct {
	Salt    string            `json:"salt"`
	Entries map[string]string `json:"entries"`
}

// FileStore persists values in a single JSON file, each value sealed with
// AES-256-GCM under a key derived from a passphrase with PBKDF2.
//
// The file is re-read on every operation so that concurrent kavach
// processes observe each other's writes.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase []byte

	// derived key cache, keyed by salt
	salt string
	key  []byte
}

// NewFileStore creates a store at path. The file is created on first write.
func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{
		path:       path,
		passphrase: []byte(passphrase),
	}
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layout, err := s.load()
	if err != nil {
		return "", false, err
	}

	sealed, ok := layout.Entries[key]
	if !ok {
		return "", false, nil
	}

	value, err := s.open(layout.Salt, sealed)
	if err != nil {
		return "", false, errors.NewStoreDecryptError(s.path, err)
	}
	return value, true, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	layout, err := s.load()
	if err != nil {
		return err
	}

	sealed, err := s.seal(layout.Salt, value)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to encrypt value", err)
	}
	layout.Entries[key] = sealed

	return s.save(layout)
}

func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	layout, err := s.load()
	if err != nil {
		return err
	}

	changed := false
	for _, k := range keys {
		if _, ok := layout.Entries[k]; ok {
			delete(layout.Entries, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return s.save(layout)
}

// load reads the file, or returns a fresh layout with a new salt when the
// file does not exist yet.
func (s *FileStore) load() (*fileLayout, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		salt := make([]byte, saltLength)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreWrite, "failed to generate salt", err)
		}
		return &fileLayout{
			Salt:    base64.StdEncoding.EncodeToString(salt),
			Entries: make(map[string]string),
		}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, fmt.Sprintf("failed to read session store: %s", s.path), err)
	}

	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, errors.NewFileUnmarshalError(s.path, "JSON", err)
	}
	if layout.Entries == nil {
		layout.Entries = make(map[string]string)
	}
	return &layout, nil
}

// save writes atomically via a temp file in the same directory
func (s *FileStore) save(layout *fileLayout) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to create session directory", err)
	}

	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to encode session store", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to write session store", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to set permissions", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to write session store", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to replace session store", err)
	}
	return nil
}

func (s *FileStore) deriveKey(salt string) ([]byte, error) {
	if s.key != nil && s.salt == salt {
		return s.key, nil
	}

	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt: %w", err)
	}

	s.key = pbkdf2.Key(s.passphrase, raw, pbkdf2Iterations, keyLength, sha256.New)
	s.salt = salt
	return s.key, nil
}

func (s *FileStore) gcm(salt string) (cipher.AEAD, error) {
	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (s *FileStore) seal(salt, plaintext string) (string, error) {
	gcm, err := s.gcm(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *FileStore) open(salt, sealed string) (string, error) {
	gcm, err := s.gcm(salt)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
