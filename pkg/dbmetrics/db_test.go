package dbmetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation(t *testing.T) {
	assert.Equal(t, "SELECT", operation("select id from bookings"))
	assert.Equal(t, "INSERT", operation("\n  INSERT INTO bookings (id) VALUES ($1)"))
	assert.Equal(t, "BEGIN", operation("BEGIN"))
}

func TestGetExecutor_PrefersTransactionFromContext(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsInTransaction(ctx))

	db := &DB{}
	assert.Same(t, db, GetExecutor(ctx, db))
}
