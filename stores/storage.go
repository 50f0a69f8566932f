package stores

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"sharedlists/config"
	"sharedlists/core"
	"sharedlists/stores/aws"
	"sharedlists/stores/filesystem"
	"sharedlists/stores/memory"
	"sharedlists/stores/sqlite"
)

// GetStore builds the persistence gateway selected by cfg.StorageType.
// Unknown types fall back to the in-memory store.
func GetStore(ctx context.Context, cfg *config.Config) (core.Store, error) {
	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	var store core.Store
	switch cfg.StorageType {
	case config.StorageFilesystem:
		storageField["basePath"] = cfg.LocalStoragePath
		p, err := filesystem.NewPersister(cfg.LocalStoragePath)
		if err != nil {
			return nil, err
		}
		if store, err = memory.NewPersistentStore(ctx, p); err != nil {
			return nil, err
		}
	case config.StorageS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.S3Bucket
		storageField["objectKey"] = cfg.S3Key
		p, err := aws.NewPersister(ctx, cfg.S3Bucket, cfg.S3Key)
		if err != nil {
			return nil, err
		}
		if store, err = memory.NewPersistentStore(ctx, p); err != nil {
			return nil, err
		}
	case config.StorageSQLite:
		storageField["dataSourceName"] = cfg.DataSourceName
		s, err := sqlite.NewStore(cfg.DataSourceName)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}
