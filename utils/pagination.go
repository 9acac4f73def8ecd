package utils

// 分页默认值
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Paginate 规范化页码和每页数量，返回偏移量
// page 从 1 开始；limit 被限制在 1..MaxPageSize，0 或负数使用默认值
func Paginate(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return page, limit, (page - 1) * limit
}
