package dialogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"storyquiz/internal/config"
)

// ErrEmptyRef is returned when a story has no dialogue reference
var ErrEmptyRef = errors.New("dialogue reference is empty")

// Source fetches the raw dialogue text a story refers to
type Source interface {
	Fetch(ctx context.Context, ref string) (string, error)
}

// NewSource builds the dialogue source selected by configuration
func NewSource(ctx context.Context, cfg *config.Config) (Source, error) {
	switch cfg.DialogueSource {
	case "file":
		return NewFileSource(cfg.DialogueBase), nil
	case "http":
		return NewHTTPSource(cfg.DialogueBase, cfg.DialogueTimeout), nil
	case "s3":
		return NewS3Source(ctx, cfg.AWSRegion, cfg.DialogueBucket, cfg.DialogueBase)
	default:
		return nil, fmt.Errorf("unsupported dialogue source: %s", cfg.DialogueSource)
	}
}

// FileSource reads dialogue files below a root directory
type FileSource struct {
	root string
}

// NewFileSource creates a file-backed dialogue source
func NewFileSource(root string) *FileSource {
	return &FileSource{root: root}
}

// Fetch reads root/ref. The reference cannot climb out of the root.
func (s *FileSource) Fetch(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", ErrEmptyRef
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.Clean("/"+ref))
	content, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("failed to read dialogue %s: %w", ref, err)
	}
	return string(content), nil
}

// HTTPSource downloads dialogue text relative to a base URL
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates an HTTP dialogue source with a per-request timeout
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch GETs baseURL/ref and returns the body
func (s *HTTPSource) Fetch(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", ErrEmptyRef
	}

	fullURL := s.baseURL + "/" + strings.TrimLeft(ref, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch dialogue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read dialogue body: %w", err)
	}
	return string(body), nil
}

// S3API is the part of the S3 client used to fetch dialogue objects
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads dialogue objects from a bucket under a key prefix
type S3Source struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Source loads the default AWS configuration and creates an S3-backed source
func NewS3Source(ctx context.Context, region, bucket, prefix string) (*S3Source, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3SourceWithClient(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

// NewS3SourceWithClient creates an S3 source around an existing client
func NewS3SourceWithClient(client S3API, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Fetch downloads the object prefix/ref
func (s *S3Source) Fetch(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", ErrEmptyRef
	}

	key := path.Join(s.prefix, strings.TrimLeft(ref, "/"))
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read s3 object body: %w", err)
	}
	return string(body), nil
}
