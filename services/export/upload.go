package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// StorageConfig holds configuration for an S3-compatible bucket.
type StorageConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS itself
}

// Enabled reports whether uploads are configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// Uploader stores exported files in object storage.
type Uploader struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
	region   string
}

// NewUploader creates a client for the configured bucket. Custom endpoints
// use path-style addressing.
func NewUploader(config StorageConfig) (*Uploader, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("export bucket is not configured")
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}
	if config.AccessKey != "" && config.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &Uploader{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
		region:   config.Region,
	}, nil
}

// UploadFile uploads the file at localPath under prefix and returns its URL.
func (u *Uploader) UploadFile(ctx context.Context, prefix, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := path.Join(prefix, filepath.Base(localPath))
	_, err = u.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ContentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	url := u.FileURL(key)
	log.Infof("[EXPORT] uploaded %s", url)
	return url, nil
}

// UploadSeries uploads every exported series file.
func (u *Uploader) UploadSeries(ctx context.Context, prefix string, series []Series) ([]string, error) {
	urls := make([]string, 0, len(series))
	for _, s := range series {
		url, err := u.UploadFile(ctx, prefix, s.Path)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// FileURL returns the address of key in the bucket.
func (u *Uploader) FileURL(key string) string {
	if u.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(u.endpoint, "/"), u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}

// ContentType returns the content type for an exported file
func ContentType(filename string) string {
	switch filepath.Ext(filename) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
