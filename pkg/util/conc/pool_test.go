// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/binio-go/pkg/util/merr"
)

func TestPool(t *testing.T) {
	pool := NewDefaultPool[int]()
	defer pool.Release()

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		res := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return res, nil
		}))
	}

	require.NoError(t, AwaitAll(futures...))
	for i, future := range futures {
		assert.Equal(t, i, future.Value())
		assert.True(t, future.OK())
	}

	assert.ErrorIs(t, pool.Resize(8), merr.ErrOperationNotSupported)
}

func TestPoolResize(t *testing.T) {
	pool := NewPool[any](2)
	defer pool.Release()

	assert.Equal(t, 2, pool.Cap())
	require.NoError(t, pool.Resize(4))
	assert.Equal(t, 4, pool.Cap())
	assert.ErrorIs(t, pool.Resize(0), merr.ErrParameterInvalid)
}

func TestPoolPreHandler(t *testing.T) {
	var calls atomic.Int32
	pool := NewPool[struct{}](2, WithPreHandler(func() { calls.Add(1) }))
	defer pool.Release()

	f := pool.Submit(func() (struct{}, error) { return struct{}{}, nil })
	require.NoError(t, f.Err())
	assert.Equal(t, int32(1), calls.Load())
}

func TestFutureErrors(t *testing.T) {
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	ok := Go(func() (int, error) { return 1, nil })
	bad := Go(func() (int, error) { return 0, errFirst })
	worse := Go(func() (int, error) { return 0, errSecond })

	<-ok.Inner()
	v, err := ok.Await()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	assert.ErrorIs(t, AwaitAll(ok, bad, worse), errFirst)

	err = BlockOnAll(ok, bad, worse)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errSecond)
	assert.NoError(t, BlockOnAll(ok))
}

func TestWarmupPool(t *testing.T) {
	pool := NewPool[any](3)
	defer pool.Release()

	var warmed atomic.Int32
	WarmupPool(pool, func() { warmed.Add(1) })
	assert.Equal(t, int32(3), warmed.Load())
}

func TestPoolPanicBecomesError(t *testing.T) {
	var recovered atomic.Value
	pool := NewPool[int](1, WithName("panicky"), WithPanicHandler(func(v any) { recovered.Store(v) }))
	defer pool.Release()

	f := pool.Submit(func() (int, error) { panic("boom") })
	assert.ErrorIs(t, f.Err(), merr.ErrOperationNotSupported)
	assert.Equal(t, "boom", recovered.Load())

	next := pool.Submit(func() (int, error) { return 7, nil })
	assert.Equal(t, 7, next.Value())
}
