package admins

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryResync(t *testing.T) {
	r := require.New(t)
	var (
		ids []int64
		err error
	)
	reg := NewRegistry(func() ([]int64, error) { return ids, err })
	r.False(reg.IsAdmin(1), "до ресинка реестр пуст")

	ids = []int64{1, 2, 2}
	n, rerr := reg.Resync()
	r.NoError(rerr)
	r.Equal(2, n)
	r.True(reg.IsAdmin(1))
	r.True(reg.IsAdmin(2))
	r.False(reg.IsAdmin(3))
	r.Equal([]int64{1, 2}, reg.Snapshot())

	ids, err = nil, errors.New("bad id")
	_, rerr = reg.Resync()
	r.Error(rerr)
	r.True(reg.IsAdmin(1), "ошибка ресинка сохраняет прежний набор")

	ids, err = []int64{3}, nil
	_, rerr = reg.Resync()
	r.NoError(rerr)
	r.False(reg.IsAdmin(1))
	r.True(reg.IsAdmin(3))
}

func TestRegistryConcurrentReads(t *testing.T) {
	reg := NewRegistry(func() ([]int64, error) { return []int64{42}, nil })
	_, err := reg.Resync()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = reg.IsAdmin(42)
			}
		}()
		go func() {
			defer wg.Done()
			_, _ = reg.Resync()
		}()
	}
	wg.Wait()
	require.True(t, reg.IsAdmin(42))
}
