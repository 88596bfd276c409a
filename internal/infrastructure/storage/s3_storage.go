package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/nollidnosnhoj/ggpx/internal/config"
	"github.com/nollidnosnhoj/ggpx/internal/domain/post"
)

// probeBytes is how much of an object is read to identify it. JPEG frame
// headers can sit behind large EXIF segments.
const probeBytes = 256 * 1024

var errStorageDisabled = errors.New("upload storage backend is not configured; set UPLOAD_BUCKET and AWS credentials to enable uploads")

// S3Storage issues presigned form uploads against an S3-compatible bucket and
// inspects what was uploaded.
type S3Storage struct {
	bucket   string
	client   *s3.Client
	presign  *s3.PresignClient
	log      zerolog.Logger
	disabled bool
}

var _ post.Storage = (*S3Storage)(nil)

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	storage := &S3Storage{
		bucket: strings.TrimSpace(cfg.S3Bucket),
		log:    logger,
	}

	accessKey := strings.TrimSpace(cfg.S3AccessKeyID)
	secretKey := strings.TrimSpace(cfg.S3SecretKey)
	if storage.bucket == "" || accessKey == "" || secretKey == "" {
		logger.Warn().Msg("UPLOAD_BUCKET or credentials are not set; uploads will be disabled until configured")
		storage.disabled = true
		return storage, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.S3Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	storage.client = client
	storage.presign = s3.NewPresignClient(client)
	return storage, nil
}

func (s *S3Storage) ensureEnabled() error {
	if s.disabled {
		return errStorageDisabled
	}
	return nil
}

// PresignPost signs a form upload for key. The policy pins the object size to
// [1, maxSize] and every supplied field to its exact value.
func (s *S3Storage) PresignPost(ctx context.Context, key string, expires time.Duration, maxSize int64, fields map[string]string) (*post.PresignedPost, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}

	formFields := formFieldsFor(fields)
	req, err := s.presign.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = expires
		o.Conditions = postConditions(maxSize, formFields)
	})
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	values := make(map[string]string, len(req.Values)+len(formFields))
	for k, v := range req.Values {
		values[k] = v
	}
	for k, v := range formFields {
		values[k] = v
	}
	return &post.PresignedPost{URL: req.URL, Fields: values}, nil
}

// ProbeImage reads the head of the stored object and reports its detected
// content type and pixel dimensions.
func (s *S3Storage) ProbeImage(ctx context.Context, key string) (*post.StoredImage, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", probeBytes-1)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, post.ErrStoredObjectMissing
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	defer out.Body.Close()

	head, err := io.ReadAll(io.LimitReader(out.Body, probeBytes))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return inspectImage(head)
}

// Delete removes the object at key.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if err := s.ensureEnabled(); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return post.ErrStoredObjectMissing
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Health performs a simple HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	if s.disabled {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// formFieldsFor maps upload fields onto S3 form field names. Content-Type is
// native to the form; anything else is stored as object metadata.
func formFieldsFor(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		if strings.EqualFold(name, post.FieldContentType) {
			out[post.FieldContentType] = value
			continue
		}
		out["x-amz-meta-"+strings.ToLower(name)] = value
	}
	return out
}

func postConditions(maxSize int64, fields map[string]string) []interface{} {
	conditions := []interface{}{
		[]interface{}{"content-length-range", 1, maxSize},
	}
	for name, value := range fields {
		conditions = append(conditions, map[string]string{name: value})
	}
	return conditions
}

func inspectImage(head []byte) (*post.StoredImage, error) {
	contentType := mimetype.Detect(head).String()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil {
		return &post.StoredImage{ContentType: contentType}, nil
	}
	return &post.StoredImage{
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}
