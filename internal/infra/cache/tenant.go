// Package cache in-process L1 cache of rarely changing reference data
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// TenantSource источник арендаторов, обычно репозиторий Postgres
type TenantSource interface {
	GetByID(ctx context.Context, id int64) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}

// TenantCache кеширует арендаторов по ID и slug.
// Ошибки источника не кешируются
type TenantCache struct {
	source TenantSource
	c      *ristretto.Cache[string, *domain.Tenant]
	ttl    time.Duration
}

// NewTenantCache создает кеш поверх источника. maxCost максимальное число записей
func NewTenantCache(source TenantSource, maxCost int64, ttl time.Duration) (*TenantCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, *domain.Tenant]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: NewTenantCache - %w", err)
	}
	return &TenantCache{source: source, c: c, ttl: ttl}, nil
}

// GetByID возвращает арендатора по ID
func (t *TenantCache) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	key := idKey(id)
	if tenant, ok := t.c.Get(key); ok {
		return copyTenant(tenant), nil
	}

	tenant, err := t.source.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.store(tenant)
	return copyTenant(tenant), nil
}

// GetBySlug возвращает арендатора по slug
func (t *TenantCache) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	key := slugKey(slug)
	if tenant, ok := t.c.Get(key); ok {
		return copyTenant(tenant), nil
	}

	tenant, err := t.source.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	t.store(tenant)
	return copyTenant(tenant), nil
}

// Invalidate удаляет арендатора из кеша
func (t *TenantCache) Invalidate(tenant *domain.Tenant) {
	t.c.Del(idKey(tenant.ID))
	t.c.Del(slugKey(tenant.Slug))
}

// Wait дожидается применения буферизованных записей
func (t *TenantCache) Wait() {
	t.c.Wait()
}

// Close освобождает ресурсы кеша
func (t *TenantCache) Close() {
	t.c.Close()
}

func (t *TenantCache) store(tenant *domain.Tenant) {
	t.c.SetWithTTL(idKey(tenant.ID), tenant, 1, t.ttl)
	t.c.SetWithTTL(slugKey(tenant.Slug), tenant, 1, t.ttl)
}

func copyTenant(tenant *domain.Tenant) *domain.Tenant {
	c := *tenant
	return &c
}

func idKey(id int64) string {
	return fmt.Sprintf("tenant:id:%d", id)
}

func slugKey(slug string) string {
	return "tenant:slug:" + slug
}
