package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// FileSource opens artifacts from the local filesystem. Relative paths are
// resolved against Root when it is set.
type FileSource struct {
	Root string
}

func (f FileSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	p := strings.TrimPrefix(path, "file://")
	if f.Root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(f.Root, p)
	}
	fh, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return fh, nil
}

// Getter is the single S3 call S3Source needs.
type Getter interface {
	GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

// S3Source opens s3://bucket/key artifacts.
type S3Source struct {
	client Getter
}

// NewS3Source builds an S3 source using the default credential chain.
func NewS3Source(region string) (*S3Source, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &S3Source{client: s3.New(sess)}, nil
}

// NewS3SourceWithClient wraps an existing client.
func NewS3SourceWithClient(c Getter) *S3Source {
	return &S3Source{client: c}
}

func (s *S3Source) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URI(path)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", path, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("not an s3 uri: %q", path)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("s3 uri without key: %q", path)
	}
	return u.Host, key, nil
}

// Router sends s3:// paths to S3 and everything else to the filesystem.
// The S3 side is optional; without it s3:// paths fail.
type Router struct {
	File FileSource
	S3   *S3Source
}

func (r Router) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "s3://") {
		if r.S3 == nil {
			return nil, fmt.Errorf("s3 artifact %q but no s3 source configured", path)
		}
		return r.S3.Open(ctx, path)
	}
	return r.File.Open(ctx, path)
}

// IsS3 reports whether any of paths needs an S3 source.
func IsS3(paths ...string) bool {
	for _, p := range paths {
		if strings.HasPrefix(p, "s3://") {
			return true
		}
	}
	return false
}
