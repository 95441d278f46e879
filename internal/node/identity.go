package node

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/brypt-community/brypt-node/internal/config"
	"github.com/brypt-community/brypt-node/internal/security"
)

// identityFile is the on-disk record for a persisted identity, named by
// config.IdentityConfig.IDPath. Mirrors the bootstrap cache's plain-JSON
// convention rather than inventing a second on-disk format.
type identityFile struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

func loadOrGenerateIdentity(cfg *config.IdentityConfig) (*security.Identity, error) {
	if cfg == nil || cfg.IDPath == "" {
		return security.GenerateIdentity()
	}

	body, err := os.ReadFile(cfg.IDPath)
	if errors.Is(err, os.ErrNotExist) {
		identity, genErr := security.GenerateIdentity()
		if genErr != nil {
			return nil, genErr
		}
		if saveErr := saveIdentity(cfg.IDPath, identity); saveErr != nil {
			return nil, saveErr
		}
		return identity, nil
	}
	if err != nil {
		return nil, fmt.Errorf("node: read identity file: %w", err)
	}

	var record identityFile
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("node: decode identity file: %w", err)
	}

	pub, err := hex.DecodeString(record.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("node: decode identity public key: %w", err)
	}
	priv, err := hex.DecodeString(record.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("node: decode identity private key: %w", err)
	}

	return security.LoadIdentity(ed25519.PublicKey(pub), ed25519.PrivateKey(priv)), nil
}

func saveIdentity(path string, identity *security.Identity) error {
	record := identityFile{
		PublicKey:  hex.EncodeToString(identity.PublicKey()),
		PrivateKey: hex.EncodeToString(identity.PrivateKey()),
	}
	body, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("node: encode identity file: %w", err)
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return fmt.Errorf("node: write identity file: %w", err)
	}
	return nil
}
