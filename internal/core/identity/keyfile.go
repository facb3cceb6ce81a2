package identity

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/Lejla94/lxp2p/pkg/lib/log"
)

var logger = log.Logger("core/identity")

// 密钥文件使用 PKCS#8 编码的 PEM 块
const pemBlockType = "PRIVATE KEY"

// SavePEM 将私钥写入密钥文件（权限 0600）
//
// 先写同目录临时文件再 rename，写入中途失败不会破坏已有密钥。
func SavePEM(id *Identity, path string) error {
	der, err := x509.MarshalPKCS8PrivateKey(id.privateKey)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: der})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return replaceFile(dir, path, data)
}

func replaceFile(dir, path string, data []byte) (err error) {
	f, err := os.CreateTemp(dir, ".identity-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if err = f.Chmod(0o600); err != nil {
		return multierr.Append(err, f.Close())
	}
	if _, err = f.Write(data); err != nil {
		return multierr.Append(err, f.Close())
	}
	if err = multierr.Append(f.Sync(), f.Close()); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// LoadPEM 读取密钥文件
func LoadPEM(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return nil, ErrInvalidPEM
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPEM, err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return New(priv)
}

// LoadOrCreate 读取密钥文件，文件不存在且 autoGenerate 时生成新身份并保存
func LoadOrCreate(path string, autoGenerate bool) (*Identity, error) {
	id, err := LoadPEM(path)
	switch {
	case err == nil:
		logger.Debug("已加载节点身份", "path", path, "nodeID", id.ID().ShortString())
		return id, nil
	case !errors.Is(err, ErrKeyNotFound) || !autoGenerate:
		return nil, fmt.Errorf("load identity %s: %w", path, err)
	}

	if id, err = Generate(); err != nil {
		return nil, err
	}
	if err := SavePEM(id, path); err != nil {
		return nil, fmt.Errorf("save identity %s: %w", path, err)
	}
	logger.Info("已生成新节点身份", "path", path, "nodeID", id.ID().String())
	return id, nil
}
