package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/inspectsync/internal/codec"
	"github.com/dmitrijs2005/inspectsync/internal/logging"
)

// ErrNoBucket is returned by NewS3Client without a bucket.
var ErrNoBucket = errors.New("s3 bucket is not configured")

// S3API is the part of the S3 client used for uploads.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config selects the bucket and the credentials of the S3 transport.
type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Prefix       string
	// UsePathStyle is needed for MinIO and most self-hosted stores.
	UsePathStyle bool
}

// S3Client writes each image of a suffix as its own object, keyed by absolute
// position, followed by a manifest describing the record. Re-sending a suffix
// overwrites the same keys.
type S3Client struct {
	api    S3API
	bucket string
	prefix string
	log    logging.Logger
}

// NewS3Client builds an S3 client from static credentials. An empty
// BaseEndpoint targets AWS itself.
func NewS3Client(ctx context.Context, cfg S3Config, log logging.Logger) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3ClientWithAPI(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewS3ClientWithAPI builds an S3Client over an existing API implementation.
func NewS3ClientWithAPI(api S3API, bucket, prefix string, log logging.Logger) *S3Client {
	return &S3Client{api: api, bucket: bucket, prefix: prefix, log: log}
}

// Manifest is written next to the images after every successful suffix.
type Manifest struct {
	ID              string   `json:"id"`
	ContainerNumber string   `json:"containerNumber"`
	Team            string   `json:"team"`
	Editor          string   `json:"editor"`
	StartIdx        int      `json:"startIdx"`
	Count           int      `json:"count"`
	ImageHashes     []string `json:"imageHashes"`
	Keys            []string `json:"keys"`
}

func (c *S3Client) Send(ctx context.Context, req UploadRequest) bool {
	if err := c.Upload(ctx, req); err != nil {
		c.log.Warn(ctx, "s3 upload failed",
			"record_id", req.RecordID, "start_idx", req.StartIndex, "images", len(req.Images), "error", err)
		return false
	}
	c.log.Debug(ctx, "s3 upload stored", "record_id", req.RecordID, "start_idx", req.StartIndex, "images", len(req.Images))
	return true
}

// Upload stores the suffix and then the manifest. The manifest is only
// written once every image of the suffix is stored.
func (c *S3Client) Upload(ctx context.Context, req UploadRequest) error {
	keys := make([]string, 0, len(req.Images))
	for i, img := range req.Images {
		idx := req.StartIndex + i

		mime, payload, err := codec.DecodeDataURI(img)
		if err != nil {
			return fmt.Errorf("image %d: %w", idx, err)
		}

		key := c.ImageKey(req.ContainerNumber, req.RecordID, idx, mime)
		in := &s3.PutObjectInput{
			Bucket:      aws.String(c.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(payload),
			ContentType: aws.String(mime),
		}
		if i < len(req.Hashes) && req.Hashes[i] != "" {
			in.Metadata = map[string]string{"sha256": req.Hashes[i]}
		}
		if _, err := c.api.PutObject(ctx, in); err != nil {
			return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
		}
		keys = append(keys, key)
	}

	m := Manifest{
		ID:              req.RecordID,
		ContainerNumber: req.ContainerNumber,
		Team:            req.TeamName,
		Editor:          req.Editor,
		StartIdx:        req.StartIndex,
		Count:           req.StartIndex + len(req.Images),
		ImageHashes:     req.Payload().ImageHashes,
		Keys:            keys,
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	key := c.recordDir(req.ContainerNumber, req.RecordID) + "/manifest.json"
	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// ImageKey returns <prefix>/<container>/<record>/<index>.<ext>.
func (c *S3Client) ImageKey(container, recordID string, index int, mime string) string {
	return fmt.Sprintf("%s/%d.%s", c.recordDir(container, recordID), index, extFor(mime))
}

func (c *S3Client) recordDir(container, recordID string) string {
	return path.Join(c.prefix, container, recordID)
}

func extFor(mime string) string {
	switch mime {
	case codec.MimeJPEG:
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
