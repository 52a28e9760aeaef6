package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/vvka-141/sparkify-dwh/pkg/dwh"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store reads objects from S3 with the default AWS credential chain.
type S3Store struct {
	client S3API
}

// NewS3Store creates an S3Store for region.
func NewS3Store(ctx context.Context, region string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS config: %w", dwh.ErrCopy, err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg)), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API) *S3Store {
	return &S3Store{client: client}
}

// SplitURI splits s3://bucket/key into bucket and key.
func SplitURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q is not an s3://bucket/key URI", dwh.ErrCopy, uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// List pages through ListObjectsV2 under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	bucket, keyPrefix, err := SplitURI(prefix)
	if err != nil {
		return nil, err
	}

	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %w", dwh.ErrCopy, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			objects = append(objects, Object{
				Key:  "s3://" + bucket + "/" + key,
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Open streams one object.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	bucket, objectKey, err := SplitURI(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", dwh.ErrCopy, key, err)
	}
	return out.Body, nil
}

// Exists issues HeadObject; a NotFound response is reported as false.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	bucket, objectKey, err := SplitURI(key)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: head %s: %w", dwh.ErrCopy, key, err)
	}
	return true, nil
}
