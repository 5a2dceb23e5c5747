package events

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/atvirokodosprendimai/switchcore/internal/core/ports"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectPutter is the subset of *s3.Client the archive sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ArchiveSink stores each api event as one gzip compressed JSON object.
type S3ArchiveSink struct {
	client ObjectPutter
	bucket string
	prefix string
	suffix func() string
}

var _ ports.EventSink = (*S3ArchiveSink)(nil)

func NewS3ArchiveSink(ctx context.Context, region, bucket, prefix string) (*S3ArchiveSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3ArchiveSinkWithClient(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

func NewS3ArchiveSinkWithClient(client ObjectPutter, bucket, prefix string) *S3ArchiveSink {
	return &S3ArchiveSink{client: client, bucket: bucket, prefix: prefix, suffix: randomSuffix}
}

// Publish writes the event under
// prefix/yyyy/mm/dd/<request_id>-<created_at_ns>-<random>.json.gz. Every event
// gets its own object, so a reused request id never replaces an earlier
// record.
func (s *S3ArchiveSink) Publish(ctx context.Context, topic string, event domain.ApiEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	body, err := gzipBytes(payload)
	if err != nil {
		return err
	}

	key := s.objectKey(event)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentLength:   aws.Int64(int64(len(body))),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
		Metadata:        map[string]string{"topic": topic, "api-flow": event.APIFlow()},
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (s *S3ArchiveSink) objectKey(event domain.ApiEvent) string {
	created := event.CreatedAt().UTC()
	name := fmt.Sprintf("%s-%d-%s.json.gz", keySegment(event.RequestID()), created.UnixNano(), s.suffix())
	return path.Join(s.prefix, created.Format("2006/01/02"), name)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// keySegment keeps [A-Za-z0-9._-] and replaces everything else, so an id can
// never add or climb path segments.
func keySegment(id string) string {
	if id == "" {
		return "unknown"
	}
	var sb strings.Builder
	sb.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
