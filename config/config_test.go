package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:        "0123456789abcdef0123456789abcdef",
		StorageType:      "local",
		ThumbnailEngine:  "native",
		ThumbnailMaxEdge: 300,
		ThumbnailQuality: 85,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	short := validConfig()
	short.JWTSecret = "too-short"
	assert.Error(t, short.Validate())

	badStorage := validConfig()
	badStorage.StorageType = "ftp"
	assert.Error(t, badStorage.Validate())

	negPixels := validConfig()
	negPixels.ImageMaxPixels = -1
	assert.Error(t, negPixels.Validate())

	badEngine := validConfig()
	badEngine.ThumbnailEngine = "imagemagick"
	assert.Error(t, badEngine.Validate())

	badQuality := validConfig()
	badQuality.ThumbnailQuality = 101
	assert.Error(t, badQuality.Validate())
}

func TestAddrAndBaseURL(t *testing.T) {
	c := &Config{ServerHost: "0.0.0.0", ServerPort: 9000}
	assert.Equal(t, "0.0.0.0:9000", c.Addr())
	assert.Equal(t, "http://localhost:9000", c.BaseURL())

	c.ServerDomain = "https://gallery.example.com/"
	assert.Equal(t, "https://gallery.example.com", c.BaseURL())

	empty := &Config{}
	assert.Equal(t, "0.0.0.0:8080", empty.Addr())
}
