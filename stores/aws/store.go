package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// ObjectAPI is the part of the S3 client the persister uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Persister keeps the store snapshot in one S3 object. It assumes a single
// writing process per object.
type s3Persister struct {
	client ObjectAPI
	bucket string
	key    string
}

// NewPersister loads the default AWS configuration (environment, shared
// config files, instance role) and targets bucket/key.
func NewPersister(ctx context.Context, bucket, key string) (*s3Persister, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewPersisterWithClient(s3.NewFromConfig(cfg), bucket, key), nil
}

func NewPersisterWithClient(client ObjectAPI, bucket, key string) *s3Persister {
	return &s3Persister{client: client, bucket: bucket, key: key}
}

func (p *s3Persister) Load(ctx context.Context) ([]byte, error) {
	log := logrus.WithFields(logrus.Fields{"bucket": p.bucket, "key": p.key})

	resp, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Info("No snapshot found, starting empty")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	log.WithField("data_length", len(data)).Debug("Snapshot read")
	return data, nil
}

func (p *s3Persister) Save(ctx context.Context, data []byte) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"bucket":      p.bucket,
		"key":         p.key,
		"data_length": len(data),
	}).Debug("Snapshot saved")
	return nil
}
