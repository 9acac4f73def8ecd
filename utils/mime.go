package utils

import (
	"net/http"
	"path/filepath"
	"strings"
)

// mimeToExtMap 允许上传的图片类型
var mimeToExtMap = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// NormalizeMIME 去掉参数并转为小写
func NormalizeMIME(mimeType string) string {
	mimeType = strings.Split(mimeType, ";")[0]
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// IsAllowedImageMIME 判断 MIME 是否为允许的图片类型
func IsAllowedImageMIME(mimeType string) bool {
	_, ok := mimeToExtMap[NormalizeMIME(mimeType)]
	return ok
}

// IsGenericMIME 未声明类型或通用二进制类型，需要靠内容判断
func IsGenericMIME(mimeType string) bool {
	switch NormalizeMIME(mimeType) {
	case "", "application/octet-stream":
		return true
	}
	return false
}

// GetSafeExtension 根据MIME类型返回安全的文件扩展名
// 如果MIME类型不被允许，返回空字符串
func GetSafeExtension(mimeType string) string {
	return mimeToExtMap[NormalizeMIME(mimeType)]
}

// ExtensionFor 优先使用原始文件名的扩展名，不合法时回退到 MIME 推断
func ExtensionFor(filename, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".jpeg" {
		return ".jpg"
	}
	for _, allowed := range mimeToExtMap {
		if ext == allowed {
			return ext
		}
	}
	return GetSafeExtension(mimeType)
}

// SniffContentType 根据内容前 512 字节检测 MIME
func SniffContentType(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	return NormalizeMIME(http.DetectContentType(data))
}
