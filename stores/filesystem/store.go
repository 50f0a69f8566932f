package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// fsPersister keeps the store snapshot in a single JSON file.
type fsPersister struct {
	path string
}

// NewPersister creates the parent directory of path if needed.
func NewPersister(path string) (*fsPersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &fsPersister{path: path}, nil
}

func (p *fsPersister) Load(ctx context.Context) ([]byte, error) {
	log := logrus.WithField("file_path", p.path)
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("No snapshot found, starting empty")
			return nil, nil
		}
		log.WithError(err).Error("Failed to read snapshot")
		return nil, err
	}
	log.WithField("data_length", len(data)).Debug("Snapshot read")
	return data, nil
}

// Save replaces the snapshot file. The data is written to a temporary file in
// the same directory first so readers never observe a partial snapshot.
func (p *fsPersister) Save(ctx context.Context, data []byte) error {
	log := logrus.WithField("file_path", p.path)

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*.tmp")
	if err != nil {
		log.WithError(err).Error("Failed to create temporary snapshot")
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		log.WithError(err).Error("Failed to write snapshot")
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		log.WithError(err).Error("Failed to replace snapshot")
		return err
	}
	log.WithField("data_length", len(data)).Debug("Snapshot saved")
	return nil
}
