package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// ErrKeyNotFound 密钥文件不存在
var ErrKeyNotFound = errors.New("identity: key file not found")

// keyFile 密钥文件格式
type keyFile struct {
	Curve   string       `json:"curve"`
	Public  string       `json:"public"`
	Private string       `json:"private"`
	ID      types.FeedID `json:"id"`
}

// SaveKeyFile 保存密钥对到 JSON 文件
//
// 使用原子写操作（临时文件 + rename），文件权限 0600。
func SaveKeyFile(k *Keypair, path string) error {
	kf := keyFile{
		Curve:   "ed25519",
		Public:  base64.StdEncoding.EncodeToString(k.PublicKey()) + ".ed25519",
		Private: base64.StdEncoding.EncodeToString(k.priv) + ".ed25519",
		ID:      k.ID(),
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return atomicWriteFile(path, data, 0600)
}

// LoadKeyFile 从 JSON 文件加载密钥对
func LoadKeyFile(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("identity: parse key file: %w", err)
	}
	if kf.Curve != "ed25519" {
		return nil, fmt.Errorf("identity: unsupported curve %q", kf.Curve)
	}

	priv, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(kf.Private, ".ed25519"))
	if err != nil {
		return nil, fmt.Errorf("identity: decode private key: %w", err)
	}
	k, err := KeypairFromPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	if kf.ID != "" && kf.ID != k.ID() {
		return nil, fmt.Errorf("identity: key file id %s does not match key", kf.ID)
	}
	return k, nil
}

// LoadOrCreateKeyFile 加载密钥文件，不存在时生成并保存
func LoadOrCreateKeyFile(path string) (*Keypair, error) {
	k, err := LoadKeyFile(path)
	if err == nil {
		return k, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}

	k, err = GenerateKeypair()
	if err != nil {
		return nil, err
	}
	if err := SaveKeyFile(k, path); err != nil {
		return nil, err
	}
	return k, nil
}

// atomicWriteFile 原子写文件
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}
