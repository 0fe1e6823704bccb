package storage

import (
	"errors"
	"fmt"
	"io"
	"path"

	"inmogest-backend/internal/config"

	"github.com/google/uuid"
	"github.com/studio-b12/gowebdav"
)

var ErrDisabled = errors.New("el almacenamiento kDrive está deshabilitado")

// KDrive: cliente del almacenamiento de documentos (WebDAV).
type KDrive struct {
	client *gowebdav.Client
	root   string
}

func NewKDrive(cfg *config.Config) *KDrive {
	if cfg.KDriveURL == "" {
		return &KDrive{}
	}
	return &KDrive{
		client: gowebdav.NewClient(cfg.KDriveURL, cfg.KDriveUser, cfg.KDrivePassword),
		root:   cfg.KDriveRoot,
	}
}

func (k *KDrive) Enabled() bool { return k.client != nil }

// Upload sube el archivo bajo una carpeta por agencia con un nombre generado
// (se conserva la extensión original para que el WebDAV sirva el MIME correcto).
func (k *KDrive) Upload(agencyID uint, originalName string, r io.Reader) (string, error) {
	if !k.Enabled() {
		return "", ErrDisabled
	}

	dir := fmt.Sprintf("%s/agency-%d", k.root, agencyID)
	if err := k.client.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("no se pudo crear la carpeta remota: %w", err)
	}

	remote := fmt.Sprintf("%s/%s%s", dir, uuid.NewString(), path.Ext(originalName))
	if err := k.client.WriteStream(remote, r, 0644); err != nil {
		return "", fmt.Errorf("no se pudo subir el archivo: %w", err)
	}

	return remote, nil
}

func (k *KDrive) Download(remotePath string) (io.ReadCloser, error) {
	if !k.Enabled() {
		return nil, ErrDisabled
	}
	return k.client.ReadStream(remotePath)
}

func (k *KDrive) Delete(remotePath string) error {
	if !k.Enabled() {
		return ErrDisabled
	}
	return k.client.Remove(remotePath)
}
