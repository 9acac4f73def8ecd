package config

// 构建时通过 -ldflags 注入
var (
	Version    = "dev"
	CommitHash = "n/a"
)

// IsDevelopment 判断是否为开发构建
func IsDevelopment() bool {
	return Version == "dev"
}
