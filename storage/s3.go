package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config AWS S3（或兼容服务）配置
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// Endpoint 为空时使用 AWS 官方地址，非空时走 path-style
	Endpoint string
}

// S3Storage 基于 aws-sdk-go-v2 的存储实现，一个实例对应一个 bucket
type S3Storage struct {
	client     *s3.Client
	bucketName string
	urls       urlMapper
}

// s3PublicBase AWS 使用虚拟主机风格 https://{bucket}.s3.amazonaws.com
func s3PublicBase(cfg S3Config) string {
	if cfg.Endpoint == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.BucketName)
	}
	return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.BucketName
}

// NewS3Storage 创建 S3 存储
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Storage(client, cfg), nil
}

func newS3Storage(client *s3.Client, cfg S3Config) *S3Storage {
	return &S3Storage{
		client:     client,
		bucketName: cfg.BucketName,
		urls:       newURLMapper(s3PublicBase(cfg)),
	}
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

// SaveWithContext 上传对象
func (s *S3Storage) SaveWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("failed to upload object '%s' to s3: %w", key, err)
	}
	return nil
}

// GetWithContext 读取对象
func (s *S3Storage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object '%s' from s3: %w", key, err)
	}
	return out.Body, nil
}

// DeleteWithContext 删除对象，S3 对不存在的 key 同样返回成功
func (s *S3Storage) DeleteWithContext(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("failed to delete object '%s' from s3: %w", key, err)
	}
	return nil
}

// Stat 获取对象信息
func (s *S3Storage) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object '%s' in s3: %w", key, err)
	}

	info := &ObjectInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.LastModified = out.LastModified.UTC()
	}
	return info, nil
}

// List 列出前缀下的对象
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// URL 返回对象公开地址
func (s *S3Storage) URL(key string) string {
	return s.urls.URL(key)
}

// Health 检查 bucket 可访问
func (s *S3Storage) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}

// Name 返回存储名称
func (s *S3Storage) Name() string {
	return "s3:" + s.bucketName
}
