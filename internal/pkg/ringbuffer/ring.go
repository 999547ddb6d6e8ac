// Package ringbuffer 提供固定容量的环形缓冲区, 写满后淘汰最旧的元素。
package ringbuffer

// Ring 固定容量的环形缓冲区
//
// 内存在创建时一次性分配, 之后的 Push 不会再扩容。
// 不是并发安全的, 由持有者串行访问。
type Ring[T any] struct {
	data     []T
	capacity int
	// head 最旧元素所在位置
	head int
	// size 当前保存的元素个数 (<= capacity)
	size int
	// totalPushed 累计写入次数, 用于计算淘汰数
	totalPushed uint64
}

// New 创建指定容量的环形缓冲区, capacity <= 0 时按 1 处理
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		data:     make([]T, capacity),
		capacity: capacity,
	}
}

// Push 追加一个元素; 缓冲区已满时覆盖最旧的元素并返回 true
func (r *Ring[T]) Push(value T) (evicted bool) {
	r.totalPushed++
	if r.size < r.capacity {
		r.data[(r.head+r.size)%r.capacity] = value
		r.size++
		return false
	}

	// 满了: 覆盖 head, head 前移
	r.data[r.head] = value
	r.head = (r.head + 1) % r.capacity
	return true
}

// Len 当前元素个数
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap 容量
func (r *Ring[T]) Cap() int {
	return r.capacity
}

// Evicted 累计被淘汰的元素个数
func (r *Ring[T]) Evicted() uint64 {
	return r.totalPushed - uint64(r.size)
}

// Snapshot 按从旧到新的顺序返回元素副本
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.data[(r.head+i)%r.capacity]
	}
	return out
}

// Last 返回最新的 n 个元素 (从旧到新)
func (r *Ring[T]) Last(n int) []T {
	if n <= 0 {
		return []T{}
	}
	if n > r.size {
		n = r.size
	}
	out := make([]T, n)
	start := r.size - n
	for i := 0; i < n; i++ {
		out[i] = r.data[(r.head+start+i)%r.capacity]
	}
	return out
}

// Reset 清空缓冲区, 保留已分配的内存
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.head = 0
	r.size = 0
	r.totalPushed = 0
}
