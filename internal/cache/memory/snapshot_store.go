package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/wb_products/internal/domain"
	"github.com/Gunvolt24/wb_products/internal/ports"
	"github.com/Gunvolt24/wb_products/pkg/metrics"
)

// Проверка, что SnapshotStore удовлетворяет интерфейсу SnapshotCache.
var _ ports.SnapshotCache = (*SnapshotStore)(nil)

type entry struct {
	key              string
	products         []*domain.Product
	slidingTTL       time.Duration
	slidingDeadline  time.Time // сдвигается вперёд при каждом попадании
	absoluteDeadline time.Time // фиксируется при вставке, не продлевается
	priority         ports.CachePriority
	onRemoval        ports.RemovalFunc
}

// expired — запись просрочена, если истёк любой из двух дедлайнов.
func (e *entry) expired(now time.Time) bool {
	if e.slidingTTL > 0 && now.After(e.slidingDeadline) {
		return true
	}
	if !e.absoluteDeadline.IsZero() && now.After(e.absoluteDeadline) {
		return true
	}
	return false
}

// SnapshotStore — in-memory кэш снапшотов каталога.
// Записи упорядочены по давности доступа (front — самые свежие); просрочка
// проверяется лениво при обращении. При переполнении вытесняется запись
// с наименьшим приоритетом, среди равных — самая давно не использованная.
type SnapshotStore struct {
	capacity int // 0 — без ограничения

	ll    *list.List
	index map[string]*list.Element

	mu sync.Mutex
}

func NewSnapshotStore(capacity int) *SnapshotStore {
	return &SnapshotStore{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
	}
}

// Get — (snapshot, true) при непросроченном попадании; сдвигает sliding-дедлайн.
func (s *SnapshotStore) Get(_ context.Context, key string) ([]*domain.Product, bool) {
	now := time.Now()

	s.mu.Lock()
	elem, ok := s.index[key]
	if !ok {
		s.mu.Unlock()
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}

	ent := elem.Value.(*entry)
	if ent.expired(now) {
		s.removeElement(elem)
		notify := ent.onRemoval
		s.mu.Unlock()
		metrics.CacheOps.WithLabelValues("expired").Inc()
		if notify != nil {
			notify(key, ports.ReasonExpired)
		}
		return nil, false
	}

	s.ll.MoveToFront(elem)
	if ent.slidingTTL > 0 {
		ent.slidingDeadline = now.Add(ent.slidingTTL)
	}
	snapshot := cloneProducts(ent.products)
	s.mu.Unlock()

	metrics.CacheOps.WithLabelValues("hit").Inc()
	return snapshot, true
}

// Set — сохранить/заменить снапшот по ключу.
// Существующая запись заменяется целиком; её хук получает причину replaced.
func (s *SnapshotStore) Set(_ context.Context, key string, products []*domain.Product, opts ports.EntryOptions) error {
	if key == "" {
		return nil
	}
	now := time.Now()

	ent := &entry{
		key:        key,
		products:   cloneProducts(products),
		slidingTTL: opts.SlidingTTL,
		priority:   opts.Priority,
		onRemoval:  opts.OnRemoval,
	}
	if opts.SlidingTTL > 0 {
		ent.slidingDeadline = now.Add(opts.SlidingTTL)
	}
	if opts.AbsoluteTTL > 0 {
		ent.absoluteDeadline = now.Add(opts.AbsoluteTTL)
	}

	var notifications []func()

	s.mu.Lock()
	if elem, ok := s.index[key]; ok {
		old := elem.Value.(*entry)
		s.removeElement(elem)
		metrics.CacheOps.WithLabelValues("replaced").Inc()
		if old.onRemoval != nil {
			cb, oldKey := old.onRemoval, old.key
			notifications = append(notifications, func() { cb(oldKey, ports.ReasonReplaced) })
		}
	}

	notifications = append(notifications, s.pruneExpiredFromBack(now)...)

	s.index[key] = s.ll.PushFront(ent)

	if s.capacity > 0 && s.ll.Len() > s.capacity {
		notifications = append(notifications, s.evictOne()...)
	}
	metrics.CacheSize.Set(float64(len(s.index)))
	s.mu.Unlock()

	for _, fn := range notifications {
		fn()
	}
	return nil
}

// Remove — явное удаление ключа; идемпотентен.
func (s *SnapshotStore) Remove(_ context.Context, key string) bool {
	s.mu.Lock()
	elem, ok := s.index[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	ent := elem.Value.(*entry)
	s.removeElement(elem)
	metrics.CacheSize.Set(float64(len(s.index)))
	notify := ent.onRemoval
	s.mu.Unlock()

	metrics.CacheOps.WithLabelValues("removed").Inc()
	if notify != nil {
		notify(key, ports.ReasonRemoved)
	}
	return true
}

// ------вспомогательные функции (вызываются под мьютексом)------

// removeElement — удаляет элемент из списка и индекса.
func (s *SnapshotStore) removeElement(elem *list.Element) {
	ent := elem.Value.(*entry)
	delete(s.index, ent.key)
	s.ll.Remove(elem)
}

// evictOne — вытесняет запись с наименьшим приоритетом;
// среди равных приоритетов — самую давно не использованную (хвост списка).
func (s *SnapshotStore) evictOne() []func() {
	var victim *list.Element
	victimPriority := ports.PriorityHigh + 1

	for elem := s.ll.Back(); elem != nil; elem = elem.Prev() {
		ent := elem.Value.(*entry)
		if ent.priority < victimPriority {
			victim, victimPriority = elem, ent.priority
			if victimPriority == ports.PriorityLow {
				break
			}
		}
	}
	if victim == nil {
		return nil
	}

	ent := victim.Value.(*entry)
	s.removeElement(victim)
	metrics.CacheOps.WithLabelValues("evicted").Inc()
	if ent.onRemoval == nil {
		return nil
	}
	cb, key := ent.onRemoval, ent.key
	return []func(){func() { cb(key, ports.ReasonEvicted) }}
}

// pruneExpiredFromBack — удаляет просроченные записи с хвоста до первой актуальной.
func (s *SnapshotStore) pruneExpiredFromBack(now time.Time) []func() {
	var notifications []func()
	for {
		back := s.ll.Back()
		if back == nil {
			return notifications
		}
		ent := back.Value.(*entry)
		if !ent.expired(now) {
			return notifications
		}
		s.removeElement(back)
		metrics.CacheOps.WithLabelValues("expired").Inc()
		if ent.onRemoval != nil {
			cb, key := ent.onRemoval, ent.key
			notifications = append(notifications, func() { cb(key, ports.ReasonExpired) })
		}
	}
}

// cloneProducts — копия снапшота, чтобы внешние изменения
// не отражались на данных внутри кэша.
func cloneProducts(products []*domain.Product) []*domain.Product {
	if products == nil {
		return nil
	}
	cloned := make([]*domain.Product, len(products))
	for i, p := range products {
		if p == nil {
			continue
		}
		cp := *p
		cloned[i] = &cp
	}
	return cloned
}
