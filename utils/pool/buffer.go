// Package pool 复用对象下载时的拷贝缓冲区
package pool

import (
	"io"
	"sync"
)

// CopyBufferSize 单个拷贝缓冲区大小
const CopyBufferSize = 64 * 1024

// 保存 *[]byte，Put 时不产生额外分配
var copyBuffers = sync.Pool{
	New: func() any {
		b := make([]byte, CopyBufferSize)
		return &b
	},
}

// Copy 使用池化缓冲区把 src 写入 dst
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	b := copyBuffers.Get().(*[]byte)
	defer copyBuffers.Put(b)
	return io.CopyBuffer(dst, src, *b)
}
