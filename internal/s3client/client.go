package s3client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"sftpcopy/internal/models"
	"sftpcopy/internal/remote"
)

// DefaultHost selects the AWS endpoint resolver instead of a custom
// S3-compatible endpoint.
const DefaultHost = "s3.amazonaws.com"

// objectAPI is the subset of *s3.Client the session needs.
type objectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Options struct {
	Bucket string
	Region string
	// Insecure talks plain HTTP to a custom endpoint.
	Insecure bool
	Logger   *slog.Logger
}

type Dialer struct {
	opts Options
}

func NewDialer(opts Options) *Dialer {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Dialer{opts: opts}
}

// endpoint returns the base endpoint for creds, or "" for AWS itself.
func (d *Dialer) endpoint(creds remote.Credentials) string {
	if creds.Host == DefaultHost || strings.HasSuffix(creds.Host, "."+DefaultHost) {
		return ""
	}
	scheme := "https"
	if d.opts.Insecure {
		scheme = "http"
	}
	return scheme + "://" + net.JoinHostPort(creds.Host, strconv.Itoa(creds.Port))
}

// Dial builds an S3 client. The username and password are the access key
// and secret key.
func (d *Dialer) Dial(ctx context.Context, creds remote.Credentials) (remote.Session, error) {
	if d.opts.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(d.opts.Region),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     creds.Username,
				SecretAccessKey: creds.Password,
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Client *s3.Client
	if endpoint := d.endpoint(creds); endpoint != "" {
		s3Client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	} else {
		s3Client = s3.NewFromConfig(awsConfig)
	}

	// S3 is stateless, so probe the bucket to surface bad credentials at
	// connect time like the other transports do.
	if _, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(d.opts.Bucket)}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %s: %w", d.opts.Bucket, err)
	}

	d.opts.Logger.Debug("S3 session opened", "bucket", d.opts.Bucket, "region", d.opts.Region)
	return newSession(s3Client, d.opts.Bucket), nil
}

// Session maps slash-separated remote paths onto object keys. Directories
// are key prefixes ending in "/".
type Session struct {
	api    objectAPI
	bucket string
}

func newSession(api objectAPI, bucket string) *Session {
	return &Session{api: api, bucket: bucket}
}

func objectKey(p string) string {
	return strings.Trim(p, "/")
}

func dirPrefix(p string) string {
	if key := objectKey(p); key != "" {
		return key + "/"
	}
	return ""
}

func (s *Session) Stat(ctx context.Context, p string) (models.RemoteEntry, error) {
	key := objectKey(p)
	if key == "" {
		return models.RemoteEntry{Name: "/", FullPath: p, Kind: models.KindDirectory}, nil
	}

	if !strings.HasSuffix(p, "/") {
		head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			entry := models.RemoteEntry{
				Name:     remote.Base(key),
				FullPath: p,
				Kind:     models.KindFile,
				Size:     nonNegative(aws.ToInt64(head.ContentLength)),
			}
			if head.LastModified != nil {
				entry.ModifiedAt = *head.LastModified
			}
			return entry, nil
		}
		if !isNotFound(err) {
			return models.RemoteEntry{}, fmt.Errorf("failed to head object %s: %w", key, err)
		}
	}

	out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(dirPrefix(p)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return models.RemoteEntry{}, fmt.Errorf("failed to list objects: %w", err)
	}
	if len(out.Contents) == 0 && len(out.CommonPrefixes) == 0 {
		return models.RemoteEntry{}, fmt.Errorf("stat %s: %w", p, remote.ErrNotFound)
	}
	return models.RemoteEntry{Name: remote.Base(key), FullPath: p, Kind: models.KindDirectory}, nil
}

func (s *Session) List(ctx context.Context, dir string) ([]models.RemoteEntry, error) {
	prefix := dirPrefix(dir)
	var entries []models.RemoteEntry

	paginator := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			entries = append(entries, models.RemoteEntry{Name: name, Kind: models.KindDirectory})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			// Zero-byte folder markers.
			if name == "" {
				continue
			}
			entry := models.RemoteEntry{
				Name: name,
				Kind: models.KindFile,
				Size: nonNegative(aws.ToInt64(obj.Size)),
			}
			if obj.LastModified != nil {
				entry.ModifiedAt = *obj.LastModified
			}
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 && prefix != "" {
		// An empty listing and a missing prefix look the same; report the
		// latter so the walker fails instead of silently copying nothing.
		if _, err := s.Stat(ctx, dir); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *Session) Download(ctx context.Context, p string, w io.Writer, onBytes func(uint64)) error {
	key := objectKey(p)
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("get %s: %w", key, remote.ErrNotFound)
		}
		return fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	cw := &remote.CountingWriter{W: w, OnBytes: onBytes}
	if _, err := io.Copy(cw, out.Body); err != nil {
		return fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return nil
}

func (s *Session) Close() error {
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func nonNegative(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
