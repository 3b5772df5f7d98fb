// Package media stores user images in a MinIO/S3 bucket and hands out public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrForeignURL = errors.New("url does not belong to the media bucket")
	ErrEmptyFile  = errors.New("file is empty")
)

// File is an uploaded image as received from the client.
// A negative Size means the length is unknown.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Empty reports whether f carries no content.
func (f *File) Empty() bool {
	return f == nil || f.Reader == nil || f.Size == 0
}

type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base, e.g. https://cdn.example.com.
	PublicURL string
}

type Client struct {
	api       minioAPI
	bucket    string
	publicURL string
}

func Dial(ctx context.Context, opts Options) (*Client, error) {
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + opts.Endpoint
	}
	return NewClientWithAPI(ctx, mc, opts.Bucket, publicURL)
}

func NewClientWithAPI(ctx context.Context, api minioAPI, bucket, publicURL string) (*Client, error) {
	c := &Client{
		api:       api,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}

	if err := c.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	if err := c.api.SetBucketPolicy(ctx, c.bucket, publicReadPolicy(c.bucket)); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}
	return nil
}

// Upload stores f under folder with a fresh object name and returns its public URL.
func (c *Client) Upload(ctx context.Context, folder string, f File) (string, error) {
	if f.Empty() {
		return "", ErrEmptyFile
	}
	size := f.Size
	if size < 0 {
		size = -1
	}

	key := path.Join(folder, uuid.NewString()+strings.ToLower(filepath.Ext(f.Name)))
	info, err := c.api.PutObject(ctx, c.bucket, key, f.Reader, size, minio.PutObjectOptions{
		ContentType: f.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	if info.Key != "" {
		key = info.Key
	}
	return c.objectURL(key), nil
}

// Delete removes the object behind a URL previously returned by Upload.
func (c *Client) Delete(ctx context.Context, url string) error {
	prefix := c.objectURL("")
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return ErrForeignURL
	}

	if err := c.api.RemoveObject(ctx, c.bucket, strings.TrimPrefix(url, prefix), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (c *Client) objectURL(key string) string {
	return c.publicURL + "/" + c.bucket + "/" + key
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}
