package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Gunvolt24/wb_products/internal/domain"
	"github.com/Gunvolt24/wb_products/internal/ports"
)

// Дефолты кэширования снапшота каталога.
const (
	DefaultSnapshotKey = "products:all"
	DefaultSlidingTTL  = 30 * time.Minute
	DefaultAbsoluteTTL = 60 * time.Minute
)

// SnapshotSettings — параметры кэш-записи снапшота (ключ и оба TTL).
// Нулевые значения заменяются дефолтами в конструкторе.
type SnapshotSettings struct {
	Key         string
	SlidingTTL  time.Duration
	AbsoluteTTL time.Duration
}

// CatalogService — прикладная логика каталога (без знаний о транспорте).
// Чтение — cache-aside по одному фиксированному ключу: снапшот всего каталога
// кэшируется целиком, любая запись инвалидирует его полностью.
// Одновременные промахи могут сходить в БД параллельно; выигрывает последний
// записавший — дедупликации загрузок нет, это принятое упрощение.
type CatalogService struct {
	repo      ports.ProductRepository // прямой доступ к хранилищу
	cache     ports.SnapshotCache     // прямой доступ к кэшу
	log       ports.Logger            // прямой доступ к логгеру
	validator ports.ProductValidator  // прямой доступ к валидатору
	settings  SnapshotSettings
}

// Проверка, что CatalogService удовлетворяет интерфейсу ports.CatalogService.
var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService — DI-конструктор.
func NewCatalogService(
	repo ports.ProductRepository,
	cache ports.SnapshotCache,
	log ports.Logger,
	validator ports.ProductValidator,
	settings SnapshotSettings,
) *CatalogService {
	if settings.Key == "" {
		settings.Key = DefaultSnapshotKey
	}
	if settings.SlidingTTL <= 0 {
		settings.SlidingTTL = DefaultSlidingTTL
	}
	if settings.AbsoluteTTL <= 0 {
		settings.AbsoluteTTL = DefaultAbsoluteTTL
	}
	return &CatalogService{
		repo:      repo,
		cache:     cache,
		log:       log,
		validator: validator,
		settings:  settings,
	}
}

// ListProducts — полный снапшот каталога: сначала из кэша,
// при промахе — из БД с записью в кэш. Ошибка БД пробрасывается как есть,
// кэш при этом не трогаем (отрицательные результаты не кэшируются).
func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if products, found := s.cache.Get(ctx, s.settings.Key); found {
		s.log.Infof(ctx, "cache hit key=%s size=%d", s.settings.Key, len(products))
		return products, nil
	}
	s.log.Infof(ctx, "cache miss key=%s", s.settings.Key)

	start := time.Now()
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		s.log.Errorf(ctx, "repo.ListAll failed err=%v", err)
		return nil, err
	}

	if setErr := s.cache.Set(ctx, s.settings.Key, products, ports.EntryOptions{
		SlidingTTL:  s.settings.SlidingTTL,
		AbsoluteTTL: s.settings.AbsoluteTTL,
		Priority:    ports.PriorityNormal,
		OnRemoval:   s.logRemoval,
	}); setErr != nil {
		// кэш недоступен — деградируем до чтения из БД, не до ошибки
		s.log.Warnf(ctx, "cache.Set failed key=%s err=%v", s.settings.Key, setErr)
	}

	s.log.Infof(ctx, "db fetch products=%d took=%s", len(products), time.Since(start))
	return products, nil
}

// AddProduct — валидация, сохранение в БД (там назначаются id и last_modified)
// и безусловная инвалидация снапшота. При ошибке сохранения кэш не трогаем:
// текущая запись всё ещё актуальна.
func (s *CatalogService) AddProduct(ctx context.Context, product *domain.Product) error {
	if err := s.validator.Validate(ctx, product); err != nil {
		s.log.Warnf(ctx, "validation failed name=%q err=%v", nameOf(product), err)
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repo.Insert(ctx, product); err != nil {
		s.log.Errorf(ctx, "repo.Insert failed name=%q err=%v", product.Name, err)
		return fmt.Errorf("failed to save product: %w", err)
	}

	// Инвалидация после подтверждённой записи: следующий ListProducts
	// перечитает каталог из БД.
	s.cache.Remove(ctx, s.settings.Key)

	s.log.Infof(ctx, "product saved id=%d name=%q", product.ID, product.Name)
	return nil
}

// AddFromMessage — сохранить товар, пришедший извне как raw JSON.
// Шаги:
//  1. строгий парсинг JSON (DisallowUnknownFields) —> отлавливаем незадокументированные поля;
//  2. проверка, что после объекта нет лишних данных;
//  3. AddProduct: доменная валидация, сохранение, инвалидация кэша.
func (s *CatalogService) AddFromMessage(ctx context.Context, raw []byte) error {
	var product domain.Product
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&product); err != nil {
		s.log.Warnf(ctx, "invalid json err=%v", err)
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		s.log.Warnf(ctx, "invalid json: trailing data")
		return fmt.Errorf("invalid json: trailing data")
	}

	return s.AddProduct(ctx, &product)
}

// ClearCache — явный сброс снапшота; отсутствие записи — не ошибка.
func (s *CatalogService) ClearCache(ctx context.Context) bool {
	removed := s.cache.Remove(ctx, s.settings.Key)
	s.log.Infof(ctx, "cache clear key=%s removed=%v", s.settings.Key, removed)
	return removed
}

// WarmUp — прогрев кэша: один ListProducts при старте заполняет снапшот.
func (s *CatalogService) WarmUp(ctx context.Context) error {
	start := time.Now()
	products, err := s.ListProducts(ctx)
	if err != nil {
		s.log.Errorf(ctx, "cache warm-up failed err=%v", err)
		return err
	}
	s.log.Infof(ctx, "cache warmed with %d products in %s", len(products), time.Since(start))
	return nil
}

// logRemoval — хук наблюдаемости: пишет в лог причину удаления записи кэша.
func (s *CatalogService) logRemoval(key string, reason ports.RemovalReason) {
	s.log.Infof(context.Background(), "cache entry removed key=%s reason=%s", key, reason)
}

func nameOf(p *domain.Product) string {
	if p == nil {
		return ""
	}
	return p.Name
}
