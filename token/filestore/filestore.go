// Package filestore persists the token pair in a single file under the data folder.
//
// The file is replaced atomically (write to a temp file, then rename) so a reader
// never sees half of a pair. When a key is supplied the JSON payload is sealed with
// XChaCha20-Poly1305.
package filestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/jrsteele09/go-shop-admin/token"
	"golang.org/x/crypto/chacha20poly1305"
)

// DefaultFileName is the file created inside the data folder.
const DefaultFileName = "tokens.json"

var _ token.Store = (*Store)(nil)

type Store struct {
	path string
	aead cipher.AEAD
	lock sync.Mutex
}

// New returns a Store writing to path. A nil key stores plain JSON; otherwise the key
// must be chacha20poly1305.KeySize bytes.
func New(path string, key []byte) (*Store, error) {
	s := &Store{path: path}
	if key != nil {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, apperrors.WithCause(apperrors.ErrInvalidConfig, err, "token store key")
		}
		s.aead = aead
	}
	return s, nil
}

// ParseKey decodes a hex encoded store key. An empty string means no key.
func ParseKey(hexKey string) ([]byte, error) {
	if hexKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrInvalidConfig, err, "token store key is not hex")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "token store key must be %d bytes", chacha20poly1305.KeySize)
	}
	return key, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context) (token.Pair, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return token.Pair{}, nil
	}
	if err != nil {
		return token.Pair{}, fmt.Errorf("failed to read token file: %w", err)
	}

	if s.aead != nil {
		if data, err = s.open(data); err != nil {
			return token.Pair{}, err
		}
	}

	var pair token.Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		return token.Pair{}, apperrors.WithCause(apperrors.ErrSealedStore, err, "decode %s", s.path)
	}
	return pair, nil
}

func (s *Store) Set(_ context.Context, pair token.Pair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.aead != nil {
		if data, err = s.seal(data); err != nil {
			return err
		}
	}
	return s.replace(data)
}

func (s *Store) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func (s *Store) replace(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token folder: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

func (s *Store) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plain, []byte(s.path)), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, apperrors.Wrapf(apperrors.ErrSealedStore, "%s is truncated", s.path)
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(s.path))
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrSealedStore, err, "open %s", s.path)
	}
	return plain, nil
}
