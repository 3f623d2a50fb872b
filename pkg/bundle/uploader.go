package bundle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oarlock/ferry/pkg/errors"
)

// multipart threshold & part size for bundle uploads
const uploadPartSize = 10 * 1024 * 1024

type Config struct {
	// optional, eg. "http://127.0.0.1:9000" for minio
	Endpoint string

	Region    string
	AccessKey string
	SecretKey string
}

// Uploader puts packed bundles into an s3 compatible object store.
type Uploader struct {
	cli *s3.Client
	up  *manager.Uploader
}

func NewUploader(cfg Config) *Uploader {
	cli := s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.AccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		}
	})
	return &Uploader{
		cli: cli,
		up: manager.NewUploader(cli, func(u *manager.Uploader) {
			u.PartSize = uploadPartSize
		}),
	}
}

// Upload puts data at the given ref (s3://bucket/key) & returns the ref, for
// use as a JobSpec SourceBundle.
func (u *Uploader) Upload(ctx context.Context, ref string, data []byte) (string, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	_, err = u.up.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("%w %v", errors.ErrBackendUnavailable, err)
	}
	return ref, nil
}

// UploadDir packs dir & uploads the archive to ref.
func (u *Uploader) UploadDir(ctx context.Context, ref, dir string) (string, error) {
	data, err := Pack(dir)
	if err != nil {
		return "", err
	}
	return u.Upload(ctx, ref, data)
}
