package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client the mirror needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror copies snapshots to a bucket under <prefix>/<day>/<file>.
type S3Mirror struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Mirror returns a mirror writing to bucket through client.
func NewS3Mirror(client ObjectPutter, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// NewS3Client builds a client from the default AWS credential chain. A
// non-empty endpoint switches to path-style addressing for MinIO and
// LocalStack.
func NewS3Client(ctx context.Context, endpoint string) (*s3.Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// Key returns the object key for a snapshot file written on day.
func (m *S3Mirror) Key(day, file string) string {
	return path.Join(m.prefix, day, filepath.Base(file))
}

// Upload puts the file at localPath and returns its key.
func (m *S3Mirror) Upload(ctx context.Context, day, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat snapshot: %w", err)
	}

	key := m.Key(day, localPath)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", m.bucket, key, err)
	}
	return key, nil
}
