// Package format 展示用的格式化工具
package format

import "strconv"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// HumanReadableSize 字节数转为两位小数的可读格式，如 "1.50 MB"
func HumanReadableSize(bytes int64) string {
	return HumanReadableSizeWithPrecision(bytes, 2)
}

// HumanReadableSizeWithPrecision 按指定小数位数格式化，不足 1KB 时按整数字节输出
// 负数按 0 处理
func HumanReadableSizeWithPrecision(bytes int64, precision int) string {
	if bytes < 1024 {
		if bytes < 0 {
			bytes = 0
		}
		return strconv.FormatInt(bytes, 10) + " B"
	}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return strconv.FormatFloat(value, 'f', precision, 64) + " " + sizeUnits[unit]
}
