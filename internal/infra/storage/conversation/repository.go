package conversation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

// Repository репозиторий состояний диалогов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория диалогов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get возвращает состояние диалога контакта.
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) Get(ctx context.Context, tenantID int64, contactID string) (*domain.ConversationState, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("tenant_id", "contact_id", "step", "payload", "last_message_id", "updated_at").
		From("conversation_states").
		Where(squirrel.Eq{"tenant_id": tenantID, "contact_id": contactID})
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var state domain.ConversationState
	var raw []byte
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&state.TenantID,
		&state.ContactID,
		&state.Step,
		&raw,
		&state.LastMessageID,
		&state.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan state: %v", ErrScanRow, err)
	}

	payload, err := domain.DecodePayload(state.Step, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: Get - decode %s: %v", ErrPayload, state.Step, err)
	}
	state.Payload = payload

	return &state, nil
}

// Save сохраняет состояние диалога (insert или update по ключу tenant_id, contact_id)
func (r *Repository) Save(ctx context.Context, state *domain.ConversationState) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	raw, err := domain.EncodePayload(state.Payload)
	if err != nil {
		return fmt.Errorf("%w: Save - encode %s: %v", ErrPayload, state.Step, err)
	}

	query, args, err := psqlbuilder.Insert("conversation_states").
		Columns("tenant_id", "contact_id", "step", "payload", "last_message_id", "updated_at").
		Values(state.TenantID, state.ContactID, state.Step, string(raw), state.LastMessageID, state.UpdatedAt).
		Suffix("ON CONFLICT (tenant_id, contact_id) DO UPDATE SET " +
			"step = EXCLUDED.step, " +
			"payload = EXCLUDED.payload, " +
			"last_message_id = EXCLUDED.last_message_id, " +
			"updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Save - build upsert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Save - execute upsert: %v", ErrExecQuery, err)
	}

	return nil
}
