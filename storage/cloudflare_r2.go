package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type CloudflareR2UploaderConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
	// Endpoint overrides the account endpoint, e.g. for an S3-compatible test server.
	Endpoint string
}

// Image keys are never reused, so objects can be cached for good.
const objectCacheControl = "public, max-age=31536000, immutable"

type cloudflareR2Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func (c CloudflareR2UploaderConfig) missingFields() []string {
	var missing []string
	for name, value := range map[string]string{
		"account id":        c.AccountID,
		"access key id":     c.AccessKeyID,
		"secret access key": c.SecretAccessKey,
		"bucket name":       c.BucketName,
		"public base url":   c.PublicBaseURL,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func NewCloudflareR2Uploader(ctx context.Context, cfg CloudflareR2UploaderConfig) (FileUploader, error) {
	if missing := cfg.missingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("r2 storage is not configured: missing %s", strings.Join(missing, ", "))
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2: load sdk config: %w", err)
	}

	return &cloudflareR2Uploader{
		client: s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			// S3-compatible test servers do not resolve bucket subdomains
			o.UsePathStyle = cfg.Endpoint != ""
		}),
		bucket:  cfg.BucketName,
		baseURL: cfg.PublicBaseURL,
	}, nil
}

func (u *cloudflareR2Uploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	body, size, err := sizedBody(reader)
	if err != nil {
		return nil, fmt.Errorf("r2: read %q: %w", key, err)
	}

	out, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(objectCacheControl),
	})
	if err != nil {
		return nil, fmt.Errorf("r2: put %q: %w", key, err)
	}

	// R2 quotes the ETag like S3 does
	return &UploadResult{
		Key:      key,
		Location: u.GetPublicURL(key),
		ETag:     strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

// sizedBody returns a seekable body and its remaining length. Without both the
// SDK falls back to aws-chunked streaming, which R2 rejects with 411.
func sizedBody(reader io.Reader) (io.ReadSeeker, int64, error) {
	if rs, ok := reader.(io.ReadSeeker); ok {
		cur, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, err
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := rs.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return rs, end - cur, nil
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

func (u *cloudflareR2Uploader) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if _, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("r2: delete %q: %w", key, err)
	}
	return nil
}

func (u *cloudflareR2Uploader) GetPublicURL(key string) string {
	return joinPublicURL(u.baseURL, key)
}
