// Package batch 在协程池上并发编解码多个相互独立的值。
//
// 每个值使用各自独立的缓冲区，组合子本身可以安全共享；
// 结果按输入顺序返回，单个值的字节与串行编码完全一致。
package batch

import (
	"context"
	"runtime"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/util/conc"
)

// Pool 持有执行编解码任务的协程池。
type Pool struct {
	inner *conc.Pool[struct{}]
}

// NewPool 创建一个容量为 size 的 Pool，size <= 0 时使用 GOMAXPROCS。
func NewPool(size int, opts ...conc.PoolOption) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	opts = append([]conc.PoolOption{conc.WithName("binio.batch")}, opts...)
	return &Pool{inner: conc.NewPool[struct{}](size, opts...)}
}

// Release 释放协程池。
func (p *Pool) Release() {
	p.inner.Release()
}

// Cap 返回协程池容量。
func (p *Pool) Cap() int {
	return p.inner.Cap()
}

// EncodeAll 并发编码 values，返回与输入一一对应的字节切片。
// 任一值失败时返回第一个（按输入顺序）失败的错误。
func EncodeAll[T any](ctx context.Context, p *Pool, c binio.Combinator[T], values []T) ([][]byte, error) {
	out := make([][]byte, len(values))
	err := run(ctx, p, len(values), func(i int) error {
		b, err := binio.WriteBytes(values[i], c)
		out[i] = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeAll 并发解码 payloads，每段载荷必须恰好包含一个值。
func DecodeAll[T any](ctx context.Context, p *Pool, c binio.Combinator[T], payloads [][]byte) ([]T, error) {
	out := make([]T, len(payloads))
	err := run(ctx, p, len(payloads), func(i int) error {
		v, err := binio.ReadBytes(payloads[i], c)
		out[i] = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func run(ctx context.Context, p *Pool, n int, task func(i int) error) error {
	futures := make([]*conc.Future[struct{}], 0, n)
	var err error
	for i := 0; i < n; i++ {
		if err = ctx.Err(); err != nil {
			err = errors.Wrapf(err, "batch stopped after %d of %d", i, n)
			break
		}
		index := i
		futures = append(futures, p.inner.Submit(func() (struct{}, error) {
			return struct{}{}, task(index)
		}))
	}

	// 等待全部已提交的任务结束后再返回。
	for _, future := range futures {
		if taskErr := future.Err(); taskErr != nil && err == nil {
			err = taskErr
		}
	}
	return err
}
