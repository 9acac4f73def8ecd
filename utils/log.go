package utils

import (
	"os"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

// Log 进程级日志实例，启动时由 SetupLogger 配置
var Log = logrus.New()

// SetupLogger 根据配置设置日志级别和格式
func SetupLogger(level, format string) {
	Log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\n' || r == '\t' {
			sb.WriteRune(' ')
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func SanitizeLogUsername(username string) string {
	if len(username) > 50 {
		username = username[:50] + "..."
	}
	return SanitizeLogMessage(username)
}
