package graphs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/aristath/qdo/internal/modules/graph"
)

// ErrSourceUnavailable is returned while the object storage circuit is open.
var ErrSourceUnavailable = errors.New("graph source temporarily unavailable")

// Downloader is the part of manager.Downloader the S3 source needs.
type Downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// S3Config configures the object storage client. Empty credentials fall back to the
// default AWS credential chain.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Downloader builds a manager.Downloader for cfg. A custom endpoint (MinIO, R2)
// switches to path-style addressing.
func NewS3Downloader(ctx context.Context, cfg S3Config) (*manager.Downloader, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return manager.NewDownloader(client), nil
}

// S3Source loads graph documents from s3://bucket/key references behind a circuit breaker.
type S3Source struct {
	downloader Downloader
	breaker    *gobreaker.CircuitBreaker
	log        zerolog.Logger

	// nil means every bucket is readable
	buckets map[string]struct{}
}

// NewS3Source wraps a downloader. The breaker opens after five consecutive transport
// failures and lets one request through after 30 seconds; missing objects and bad documents do not count.
func NewS3Source(downloader Downloader, log zerolog.Logger) *S3Source {
	l := log.With().Str("component", "s3_graph_source").Logger()
	return &S3Source{
		downloader: downloader,
		log:        l,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "s3-graphs",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, graph.ErrInvalidGraph) ||
					errors.Is(err, context.Canceled)
			},
		}),
	}
}

// RestrictTo limits the source to the named buckets. With no names nothing is readable.
func (s *S3Source) RestrictTo(buckets ...string) *S3Source {
	s.buckets = make(map[string]struct{}, len(buckets))
	for _, b := range buckets {
		if b = strings.TrimSpace(b); b != "" {
			s.buckets[b] = struct{}{}
		}
	}
	return s
}

func (s *S3Source) allowed(bucket string) bool {
	if s.buckets == nil {
		return true
	}
	_, ok := s.buckets[bucket]
	return ok
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URI %q: %w", uri, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q: want s3://bucket/key", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q: missing object key", uri)
	}
	return u.Host, key, nil
}

// Load downloads and parses the document at uri.
func (s *S3Source) Load(ctx context.Context, uri string) (*graph.WeightedGraph, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
	}
	if !s.allowed(bucket) {
		return nil, fmt.Errorf("%w: bucket %q is not readable", ErrSourceNotAllowed, bucket)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		buf := manager.NewWriteAtBuffer(nil)
		_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Range:  aws.String(fmt.Sprintf("bytes=0-%d", MaxDocumentBytes)),
		})
		if err != nil {
			if isMissingObject(err) {
				return nil, &NotFoundError{Source: uri, Err: err}
			}
			return nil, fmt.Errorf("download %s: %w", uri, err)
		}

		data := buf.Bytes()
		if int64(len(data)) > MaxDocumentBytes {
			return nil, graph.NewInvalidGraphError("%s is larger than %d bytes", uri, MaxDocumentBytes)
		}
		format := FormatFromPath(path.Base(key))
		doc, err := Decode(data, format)
		if err != nil {
			s.log.Debug().Err(err).Str("uri", uri).Msg("Graph object did not decode")
			return nil, graph.NewInvalidGraphError("%s is not a valid %s graph document", uri, format)
		}
		return doc.Graph()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.log.Warn().Str("uri", uri).Err(err).Msg("Object storage circuit open, rejecting load")
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return nil, err
	}
	return result.(*graph.WeightedGraph), nil
}

func isMissingObject(err error) bool {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &noBucket) || errors.As(err, &notFound)
}
