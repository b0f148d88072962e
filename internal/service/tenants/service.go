package tenants

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	tenantRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/tenant"
)

// Service поиск арендатора по числовому ID или slug
type Service struct {
	repo TenantRepository
}

// NewService создает сервис арендаторов
func NewService(repo TenantRepository) *Service {
	return &Service{repo: repo}
}

// Resolve находит арендатора по ссылке: строка из цифр считается ID, иначе slug
func (s *Service) Resolve(ctx context.Context, ref string) (*domain.Tenant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrInvalidReference
	}

	var (
		tenant *domain.Tenant
		err    error
	)
	if id, parseErr := strconv.ParseInt(ref, 10, 64); parseErr == nil {
		tenant, err = s.repo.GetByID(ctx, id)
	} else {
		tenant, err = s.repo.GetBySlug(ctx, strings.ToLower(ref))
	}

	if err != nil {
		if errors.Is(err, tenantRepo.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: Resolve - %v", ErrInternal, err)
	}

	return tenant, nil
}

// GetByID возвращает арендатора по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, tenantRepo.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: GetByID - %v", ErrInternal, err)
	}
	return tenant, nil
}
