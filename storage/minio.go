package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anoixa/clone-gallery/utils"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig MinIO 连接配置
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	// PublicBase 对外访问前缀，为空时使用 {scheme}://{endpoint}
	PublicBase string
}

// MinioStorage MinIO 存储实现，一个实例对应一个 bucket
type MinioStorage struct {
	client     *minio.Client
	bucketName string
	urls       urlMapper
}

// mustGetSystemCertPool 获取系统证书池
func mustGetSystemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		utils.Log.Warnf("[Storage] Failed to load system cert pool: %v", err)
		return x509.NewCertPool()
	}
	return pool
}

func newMinioTransport(useSSL bool) *http.Transport {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}

	// SSL
	if useSSL {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if f := os.Getenv("SSL_CERT_FILE"); f != "" {
			rootCAs := mustGetSystemCertPool()
			if data, err := os.ReadFile(f); err == nil {
				rootCAs.AppendCertsFromPEM(data)
			}
			transport.TLSClientConfig.RootCAs = rootCAs
		}
	}
	return transport
}

func minioPublicBase(cfg MinioConfig) string {
	if cfg.PublicBase != "" {
		return strings.TrimRight(cfg.PublicBase, "/") + "/" + cfg.BucketName
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimRight(endpoint, "/"), cfg.BucketName)
}

// publicReadPolicy 允许匿名读取 bucket 内对象
func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// NewMinioStorage 创建 MinIO 存储，bucket 不存在时自动创建并设置公开读
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:    cfg.UseSSL,
		Transport: newMinioTransport(cfg.UseSSL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket '%s' exists: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.BucketName, err)
		}
		if err := client.SetBucketPolicy(ctx, cfg.BucketName, publicReadPolicy(cfg.BucketName)); err != nil {
			utils.Log.Warnf("[Storage] Failed to set public policy on bucket %s: %v", cfg.BucketName, err)
		}
		utils.Log.Infof("[Storage] Created bucket: %s", cfg.BucketName)
	}

	return newMinioStorage(client, cfg), nil
}

func newMinioStorage(client *minio.Client, cfg MinioConfig) *MinioStorage {
	return &MinioStorage{
		client:     client,
		bucketName: cfg.BucketName,
		urls:       newURLMapper(minioPublicBase(cfg)),
	}
}

func isMinioNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// SaveWithContext 将对象上传到 MinIO
func (s *MinioStorage) SaveWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object '%s' to minio: %w", key, err)
	}
	return nil
}

// GetWithContext 读取对象
func (s *MinioStorage) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object '%s' from minio: %w", key, err)
	}
	// GetObject 是惰性的，Stat 一次以便尽早发现对象不存在
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isMinioNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object '%s' in minio: %w", key, err)
	}
	return obj, nil
}

// DeleteWithContext 删除对象，MinIO 对不存在的对象同样返回成功
func (s *MinioStorage) DeleteWithContext(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete object '%s' from minio: %w", key, err)
	}
	return nil
}

// Stat 获取对象信息
func (s *MinioStorage) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object '%s' in minio: %w", key, err)
	}
	return &ObjectInfo{
		Key:          key,
		Size:         info.Size,
		LastModified: info.LastModified.UTC(),
		ContentType:  info.ContentType,
	}, nil
}

// List 列出前缀下的对象
func (s *MinioStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list minio objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// URL 返回对象公开地址 {endpoint}/{bucket}/{key}
func (s *MinioStorage) URL(key string) string {
	return s.urls.URL(key)
}

// Health 检查 bucket 可访问
func (s *MinioStorage) Health(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}

// Name 返回存储名称
func (s *MinioStorage) Name() string {
	return "minio:" + s.bucketName
}
