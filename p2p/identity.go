package p2p

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/natefinch/atomic"
)

const keyFilename = "p2p.key"

type identityInfo struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

// IdentityInfo is the public part of a persisted identity.
type IdentityInfo struct {
	ID        peer.ID
	PublicKey crypto.PubKey
}

func (i *IdentityInfo) String() string {
	return i.ID.String()
}

// EnsureIdentity loads the host key from dir, or generates and persists a new ed25519 key.
func EnsureIdentity(dir string) (crypto.PrivKey, error) {
	key, err := loadIdentity(dir)
	switch {
	case err == nil:
		return key, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create identity dir %s: %w", dir, err)
	}
	key, _, err = crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	raw, err := crypto.MarshalPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal identity: %w", err)
	}
	id, err := peer.IDFromPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("identity to peer id: %w", err)
	}
	data, err := json.MarshalIndent(identityInfo{Key: hex.EncodeToString(raw), ID: id.String()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}
	path := filepath.Join(dir, keyFilename)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("write identity %s: %w", path, err)
	}
	return key, nil
}

func loadIdentity(dir string) (crypto.PrivKey, error) {
	path := filepath.Join(dir, keyFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info identityInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode identity %s: %w", path, err)
	}
	raw, err := hex.DecodeString(info.Key)
	if err != nil {
		return nil, fmt.Errorf("decode identity key %s: %w", path, err)
	}
	key, err := crypto.UnmarshalPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal identity key %s: %w", path, err)
	}
	return key, nil
}

// IdentityInfoFromDir returns the persisted identity of dir.
func IdentityInfoFromDir(dir string) (*IdentityInfo, error) {
	key, err := loadIdentity(dir)
	if err != nil {
		return nil, err
	}
	id, err := peer.IDFromPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("identity to peer id: %w", err)
	}
	return &IdentityInfo{ID: id, PublicKey: key.GetPublic()}, nil
}

// PrettyIdentityInfoFromDir returns the persisted identity of dir as indented JSON.
func PrettyIdentityInfoFromDir(dir string) (string, error) {
	info, err := IdentityInfoFromDir(dir)
	if err != nil {
		return "", err
	}
	raw, err := crypto.MarshalPublicKey(info.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	data, err := json.MarshalIndent(struct {
		ID        string `json:"id"`
		PublicKey string `json:"public_key"`
	}{ID: info.ID.String(), PublicKey: hex.EncodeToString(raw)}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	return string(data), nil
}
