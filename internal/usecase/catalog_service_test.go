package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	cachemem "github.com/Gunvolt24/wb_products/internal/cache/memory"
	"github.com/Gunvolt24/wb_products/internal/domain"
	"github.com/Gunvolt24/wb_products/internal/ports"
	"github.com/Gunvolt24/wb_products/internal/ports/mocks"
	"github.com/Gunvolt24/wb_products/internal/usecase"
	"github.com/Gunvolt24/wb_products/pkg/validate"
	"github.com/golang/mock/gomock"
)

const snapshotKey = "products:all"

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

func newService(repo ports.ProductRepository, cache ports.SnapshotCache, v ports.ProductValidator) *usecase.CatalogService {
	return usecase.NewCatalogService(repo, cache, noopLogger{}, v, usecase.SnapshotSettings{Key: snapshotKey})
}

func TestListProducts_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	snapshot := []*domain.Product{{ID: 1, Name: "Laptop"}}
	cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(snapshot, true)
	// БД не трогаем
	repo.EXPECT().ListAll(gomock.Any()).Times(0)

	svc := newService(repo, cache, validator)

	got, err := svc.ListProducts(context.Background())
	if err != nil || len(got) != 1 || got[0].Name != "Laptop" {
		t.Fatalf("expected hit, got err=%v snapshot=%+v", err, got)
	}
}

func TestListProducts_CacheMiss_FetchAndCache(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	snapshot := []*domain.Product{{ID: 1, Name: "Laptop"}, {ID: 2, Name: "Mouse"}}

	var gotOpts ports.EntryOptions
	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(nil, false),
		repo.EXPECT().ListAll(gomock.Any()).Return(snapshot, nil),
		cache.EXPECT().Set(gomock.Any(), snapshotKey, snapshot, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ []*domain.Product, opts ports.EntryOptions) error {
				gotOpts = opts
				return nil
			}),
	)

	svc := newService(repo, cache, validator)

	got, err := svc.ListProducts(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("expected miss+fetch, got err=%v snapshot=%+v", err, got)
	}

	// Параметры записи: оба TTL дефолтные, приоритет normal, хук назначен.
	if gotOpts.SlidingTTL != usecase.DefaultSlidingTTL || gotOpts.AbsoluteTTL != usecase.DefaultAbsoluteTTL {
		t.Fatalf("unexpected TTLs: %+v", gotOpts)
	}
	if gotOpts.Priority != ports.PriorityNormal || gotOpts.OnRemoval == nil {
		t.Fatalf("want normal priority and removal hook, got %+v", gotOpts)
	}
}

func TestListProducts_RepoError_CacheUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	repoErr := errors.New("DB down")
	cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(nil, false)
	repo.EXPECT().ListAll(gomock.Any()).Return(nil, repoErr)
	// ошибка БД не кэшируется
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	svc := newService(repo, cache, validator)

	got, err := svc.ListProducts(context.Background())
	if got != nil || !errors.Is(err, repoErr) {
		t.Fatalf("expected repo error, got snapshot=%v err=%v", got, err)
	}
}

func TestListProducts_CacheSetWarnOnly(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	snapshot := []*domain.Product{{ID: 1, Name: "Laptop"}}
	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), snapshotKey).Return(nil, false),
		repo.EXPECT().ListAll(gomock.Any()).Return(snapshot, nil),
		cache.EXPECT().Set(gomock.Any(), snapshotKey, snapshot, gomock.Any()).Return(errors.New("cache set failed")),
	)

	svc := newService(repo, cache, validator)

	// Недоступный кэш деградирует до чтения из БД, не до ошибки.
	got, err := svc.ListProducts(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("cache failure must not fail the read: err=%v got=%+v", err, got)
	}
}

func TestAddProduct_InvalidatesAfterInsert(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	p := &domain.Product{Name: "Laptop", Price: 999.99}

	gomock.InOrder(
		validator.EXPECT().Validate(gomock.Any(), p).Return(nil),
		repo.EXPECT().Insert(gomock.Any(), p).Return(nil),
		// инвалидация строго после подтверждённой записи
		cache.EXPECT().Remove(gomock.Any(), snapshotKey).Return(true),
	)

	svc := newService(repo, cache, validator)
	if err := svc.AddProduct(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddProduct_InsertFailed_NoInvalidation(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	p := &domain.Product{Name: "Laptop", Price: 999.99}
	insertErr := errors.New("constraint violation")

	validator.EXPECT().Validate(gomock.Any(), p).Return(nil)
	repo.EXPECT().Insert(gomock.Any(), p).Return(insertErr)
	// запись не прошла — кэш всё ещё валиден, не трогаем
	cache.EXPECT().Remove(gomock.Any(), gomock.Any()).Times(0)

	svc := newService(repo, cache, validator)
	if err := svc.AddProduct(context.Background(), p); !errors.Is(err, insertErr) {
		t.Fatalf("want wrapped insert error, got %v", err)
	}
}

func TestAddProduct_ValidationFailed(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	v := validate.NewProductValidator()

	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)
	cache.EXPECT().Remove(gomock.Any(), gomock.Any()).Times(0)

	svc := newService(repo, cache, v)
	err := svc.AddProduct(context.Background(), &domain.Product{Name: "", Price: 1})
	if !errors.Is(err, validate.ErrInvalidProduct) {
		t.Fatalf("want wrapped ErrInvalidProduct, got %v", err)
	}
}

func TestAddFromMessage_InvalidJson(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	svc := newService(repo, cache, validator)

	err := svc.AddFromMessage(context.Background(), []byte("{"))
	if err == nil || !strings.Contains(err.Error(), "invalid json") {
		t.Fatalf("expected invalid json error, got err=%v", err)
	}
}

func TestAddFromMessage_TrailingData(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)

	svc := newService(repo, cache, validator)
	err := svc.AddFromMessage(context.Background(), []byte(`{"name":"Laptop","price":999.99} {}`))
	if err == nil || !strings.Contains(err.Error(), "trailing data") {
		t.Fatalf("want trailing data error, got %v", err)
	}
}

func TestAddFromMessage_Success(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	gomock.InOrder(
		validator.EXPECT().Validate(gomock.Any(), gomock.AssignableToTypeOf(&domain.Product{})).Return(nil),
		repo.EXPECT().Insert(gomock.Any(), gomock.AssignableToTypeOf(&domain.Product{})).Return(nil),
		cache.EXPECT().Remove(gomock.Any(), snapshotKey).Return(true),
	)

	svc := newService(repo, cache, validator)
	if err := svc.AddFromMessage(context.Background(), []byte(`{"name":"Laptop","price":999.99}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClearCache_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	validator := mocks.NewMockProductValidator(ctrl)

	gomock.InOrder(
		cache.EXPECT().Remove(gomock.Any(), snapshotKey).Return(true),
		cache.EXPECT().Remove(gomock.Any(), snapshotKey).Return(false),
	)

	svc := newService(repo, cache, validator)
	if !svc.ClearCache(context.Background()) {
		t.Fatalf("first clear must report removal")
	}
	// повторный сброс пустого кэша — не ошибка
	if svc.ClearCache(context.Background()) {
		t.Fatalf("second clear must report nothing to remove")
	}
}

// ----------------------------------------------------------------------------
// Сквозные сценарии на настоящем кэше и считающем репозитории
// ----------------------------------------------------------------------------

// countingRepo — репозиторий-заглушка, считающая обращения к БД.
type countingRepo struct {
	listCalls atomic.Int64
	nextID    atomic.Int64
	items     []*domain.Product
}

func (r *countingRepo) ListAll(context.Context) ([]*domain.Product, error) {
	r.listCalls.Add(1)
	out := make([]*domain.Product, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *countingRepo) Insert(_ context.Context, p *domain.Product) error {
	p.ID = r.nextID.Add(1)
	r.items = append(r.items, p)
	return nil
}

func TestScenario_RepeatedList_SingleDBRead(t *testing.T) {
	repo := &countingRepo{items: []*domain.Product{{ID: 1, Name: "Laptop", Price: 999.99}}}
	store := cachemem.NewSnapshotStore(0)
	svc := usecase.NewCatalogService(repo, store, noopLogger{}, validate.NewProductValidator(), usecase.SnapshotSettings{})

	ctx := context.Background()
	first, err := svc.ListProducts(ctx)
	if err != nil || len(first) != 1 {
		t.Fatalf("first list: err=%v got=%+v", err, first)
	}
	second, err := svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}

	if repo.listCalls.Load() != 1 {
		t.Fatalf("second list must be served from cache, db reads=%d", repo.listCalls.Load())
	}
	if len(second) != 1 || second[0].Name != first[0].Name || second[0].Price != first[0].Price {
		t.Fatalf("cached snapshot differs: %+v vs %+v", first, second)
	}
}

func TestScenario_AddThenList_FreshRead(t *testing.T) {
	repo := &countingRepo{}
	store := cachemem.NewSnapshotStore(0)
	svc := usecase.NewCatalogService(repo, store, noopLogger{}, validate.NewProductValidator(), usecase.SnapshotSettings{})

	ctx := context.Background()

	// заполняем кэш пустым каталогом
	if _, err := svc.ListProducts(ctx); err != nil {
		t.Fatalf("warm list: %v", err)
	}

	if err := svc.AddProduct(ctx, &domain.Product{Name: "Laptop", Price: 999.99}); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list after add: %v", err)
	}
	if repo.listCalls.Load() != 2 {
		t.Fatalf("list after add must re-read the db, reads=%d", repo.listCalls.Load())
	}
	if len(got) != 1 || got[0].Name != "Laptop" || got[0].Price != 999.99 || got[0].ID == 0 {
		t.Fatalf("new product must be visible with assigned id: %+v", got)
	}
}

func TestScenario_ClearForcesReRead(t *testing.T) {
	repo := &countingRepo{items: []*domain.Product{{ID: 1, Name: "Laptop"}}}
	store := cachemem.NewSnapshotStore(0)
	svc := usecase.NewCatalogService(repo, store, noopLogger{}, validate.NewProductValidator(), usecase.SnapshotSettings{})

	ctx := context.Background()
	if _, err := svc.ListProducts(ctx); err != nil {
		t.Fatalf("first list: %v", err)
	}

	svc.ClearCache(ctx)

	if _, err := svc.ListProducts(ctx); err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if repo.listCalls.Load() != 2 {
		t.Fatalf("clear must force a fresh db read, reads=%d", repo.listCalls.Load())
	}
}

func TestWarmUp_FillsCache(t *testing.T) {
	repo := &countingRepo{items: []*domain.Product{{ID: 1, Name: "Laptop"}}}
	store := cachemem.NewSnapshotStore(0)
	svc := usecase.NewCatalogService(repo, store, noopLogger{}, validate.NewProductValidator(), usecase.SnapshotSettings{})

	ctx := context.Background()
	if err := svc.WarmUp(ctx); err != nil {
		t.Fatalf("warm-up: %v", err)
	}
	if _, err := svc.ListProducts(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.listCalls.Load() != 1 {
		t.Fatalf("list after warm-up must hit the cache, reads=%d", repo.listCalls.Load())
	}
}
