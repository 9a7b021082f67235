package admins

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/samber/lo"
)

// Source возвращает актуальный список id глобальных админов.
type Source func() ([]int64, error)

type set map[int64]struct{}

// Registry хранит неизменяемое множество админов и атомарно подменяет его при ресинке.
type Registry struct {
	ids    atomic.Pointer[set]
	source Source
}

// NewRegistry создаёт пустой реестр. Заполняется через Resync.
func NewRegistry(source Source) *Registry {
	r := &Registry{source: source}
	empty := set{}
	r.ids.Store(&empty)
	return r
}

// IsAdmin сообщает, входит ли пользователь в последнее успешно загруженное множество.
func (r *Registry) IsAdmin(userID int64) bool {
	_, ok := (*r.ids.Load())[userID]
	return ok
}

// Resync перечитывает источник. При ошибке прежнее множество сохраняется.
func (r *Registry) Resync() (int, error) {
	ids, err := r.source()
	if err != nil {
		return 0, fmt.Errorf("загрузка админов: %w", err)
	}
	next := make(set, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	r.ids.Store(&next)
	return len(next), nil
}

// Snapshot возвращает отсортированный список текущих админов.
func (r *Registry) Snapshot() []int64 {
	ids := lo.Keys(*r.ids.Load())
	slices.Sort(ids)
	return ids
}
