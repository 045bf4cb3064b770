package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/evalboard/internal/errors"
)

// maxRemoteSize bounds the size of a configuration object fetched from S3.
const maxRemoteSize = 1 << 20

// ObjectGetter fetches a single object. *s3.Client satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadSource loads configuration from a local file, a directory, or an
// s3://bucket/key URI. getter is only used for S3 URIs and may be nil
// otherwise.
func LoadSource(ctx context.Context, uri string, getter ObjectGetter) (*Config, error) {
	if !strings.HasPrefix(uri, "s3://") {
		info, err := os.Stat(uri)
		if err == nil && info.IsDir() {
			return Load(uri)
		}
		return LoadFile(uri)
	}

	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if getter == nil {
		return nil, errors.New("E105").
			WithFile(uri).
			WithDetail("no S3 client configured")
	}

	out, err := getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("E105").
			WithFile(uri).
			WithSuggestion("Check the bucket name, key and AWS credentials").
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxRemoteSize+1))
	if err != nil {
		return nil, errors.New("E105").WithFile(uri).Wrap(err)
	}
	if len(data) > maxRemoteSize {
		return nil, errors.New("E105").
			WithFile(uri).
			WithDetail(fmt.Sprintf("configuration object exceeds %d bytes", maxRemoteSize))
	}

	cfg, err := Parse(data, formatOf(key))
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.WithFile(uri)
		}
		return nil, err
	}
	cfg.source = uri
	return cfg, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", errors.New("E102").
			WithFile(uri).
			WithDetail("S3 configuration URIs must look like s3://bucket/path/evalboard.json")
	}
	if ext := path.Ext(key); ext != ".json" && ext != ".toml" {
		return "", "", errors.New("E102").
			WithFile(uri).
			WithDetail(fmt.Sprintf("unsupported configuration object extension %q", ext))
	}
	return bucket, key, nil
}

// NewS3Client returns an S3 client for region using the static
// credentials found in the standard AWS environment variables.
func NewS3Client(region string, getenv func(string) string) *s3.Client {
	if region == "" {
		region = getenv("AWS_REGION")
	}
	return s3.New(s3.Options{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			creds := aws.Credentials{
				AccessKeyID:     getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}
			if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
				return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
			}
			return creds, nil
		}),
	})
}
