package storage

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioURLs(t *testing.T) {
	client, err := minio.New("minio.local:9000", &minio.Options{})
	require.NoError(t, err)

	s := newMinioStorage(client, MinioConfig{Endpoint: "minio.local:9000", BucketName: "clonegallery-images"})
	u := s.URL("images/a.jpg")
	assert.Equal(t, "http://minio.local:9000/clonegallery-images/images/a.jpg", u)

	key, ok := KeyFromURL(s, u)
	require.True(t, ok)
	assert.Equal(t, "images/a.jpg", key)

	tls := newMinioStorage(client, MinioConfig{Endpoint: "https://s3.example.com", UseSSL: true, BucketName: "b"})
	assert.Equal(t, "https://s3.example.com/b/k.jpg", tls.URL("k.jpg"))
}

func TestS3URLs(t *testing.T) {
	client := s3.NewFromConfig(aws.Config{Region: "us-east-1"})

	s := newS3Storage(client, S3Config{BucketName: "gallery"})
	assert.Equal(t, "https://gallery.s3.amazonaws.com/images/a.jpg", s.URL("images/a.jpg"))

	custom := newS3Storage(client, S3Config{BucketName: "gallery", Endpoint: "http://localhost:4566/"})
	u := custom.URL("thumbnails/a.jpg")
	assert.Equal(t, "http://localhost:4566/gallery/thumbnails/a.jpg", u)

	key, ok := KeyFromURL(custom, u)
	require.True(t, ok)
	assert.Equal(t, "thumbnails/a.jpg", key)

	_, ok = KeyFromURL(s, u)
	assert.False(t, ok)
}
