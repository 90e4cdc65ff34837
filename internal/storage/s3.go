package storage

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// PutObjectAPI is the part of *s3.Client the store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads documents to a bucket. Extraction keeps reading the source file.
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

func NewS3Store(client PutObjectAPI, bucket, prefix string, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (s *S3Store) Put(ctx context.Context, src string) (Stored, error) {
	start := time.Now()
	f, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Stored{}, common.NotFoundf("file not found: %s", src)
		}
		return Stored{}, common.PersistenceError("open "+src, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return Stored{}, common.PersistenceError("stat "+src, err)
	}

	key := StoredName(src, info)
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		Metadata: map[string]string{
			"source-name": path.Base(src),
		},
	})
	if err != nil {
		s.logger.Error("storage.s3.put.failed", "bucket", s.bucket, "key", key, "error", err)
		return Stored{}, common.PersistenceError("put s3://"+s.bucket+"/"+key, err)
	}

	location := "s3://" + s.bucket + "/" + key
	s.logger.Info("storage.s3.put.ok",
		"run_id", common.RunIDFromContext(ctx),
		"location", location,
		"bytes", info.Size(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Stored{Location: location, LocalPath: src}, nil
}
