package ports

import (
	"context"
	"time"

	"github.com/Gunvolt24/wb_products/internal/domain"
)

// RemovalReason — причина удаления записи из кэша.
type RemovalReason string

const (
	ReasonRemoved  RemovalReason = "removed"  // явное удаление (Remove/инвалидация)
	ReasonReplaced RemovalReason = "replaced" // запись заменена новым Set по тому же ключу
	ReasonExpired  RemovalReason = "expired"  // истёк sliding- или absolute-дедлайн
	ReasonEvicted  RemovalReason = "evicted"  // вытеснение при переполнении
)

// CachePriority — рекомендация кэшу, кого вытеснять первым при нехватке места.
type CachePriority int

const (
	PriorityLow CachePriority = iota
	PriorityNormal
	PriorityHigh
)

// RemovalFunc — колбэк, вызываемый после удаления записи (для наблюдаемости).
type RemovalFunc func(key string, reason RemovalReason)

// EntryOptions — параметры записи кэша при Set.
// SlidingTTL сдвигается вперёд при каждом попадании, AbsoluteTTL фиксируется
// в момент вставки; запись считается отсутствующей по истечении любого из них.
type EntryOptions struct {
	SlidingTTL  time.Duration
	AbsoluteTTL time.Duration
	Priority    CachePriority
	OnRemoval   RemovalFunc
}

// SnapshotCache — кэш снапшотов каталога по строковому ключу.
// Требования к реализации: потокобезопасность; атомарные операции по ключу;
// возврат копий значения (внешняя мутация не должна менять содержимое кэша).
type SnapshotCache interface {
	// Get — (snapshot, true) при непросроченном попадании, (nil, false) иначе.
	Get(ctx context.Context, key string) ([]*domain.Product, bool)

	// Set — сохранить/заменить снапшот по ключу с заданными параметрами записи.
	Set(ctx context.Context, key string, products []*domain.Product, opts EntryOptions) error

	// Remove — удалить ключ; true, если запись существовала. Идемпотентен.
	Remove(ctx context.Context, key string) bool
}
