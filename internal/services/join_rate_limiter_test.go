package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestJoinRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("under the limit", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		limiter := NewJoinRateLimiter(client, 3, time.Hour)

		mock.ExpectGet("olos:join:ratelimit:user-1").SetVal("2")

		assert.NoError(t, limiter.Check(ctx, "user-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no counter yet", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		limiter := NewJoinRateLimiter(client, 3, time.Hour)

		mock.ExpectGet("olos:join:ratelimit:user-1").RedisNil()

		assert.NoError(t, limiter.Check(ctx, "user-1"))
	})

	t.Run("limit reached", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		limiter := NewJoinRateLimiter(client, 3, time.Hour)

		mock.ExpectGet("olos:join:ratelimit:user-1").SetVal("3")

		assert.ErrorIs(t, limiter.Check(ctx, "user-1"), ErrRateLimited)
	})

	t.Run("redis failure allows the join", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		limiter := NewJoinRateLimiter(client, 3, time.Hour)

		mock.ExpectGet("olos:join:ratelimit:user-1").SetErr(errors.New("connection refused"))

		assert.NoError(t, limiter.Check(ctx, "user-1"))
	})

	t.Run("record increments with expiry", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		limiter := NewJoinRateLimiter(client, 3, time.Hour)

		mock.ExpectIncr("olos:join:ratelimit:user-1").SetVal(1)
		mock.ExpectExpire("olos:join:ratelimit:user-1", time.Hour).SetVal(true)

		limiter.Record(ctx, "user-1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil limiter and nil client are no-ops", func(t *testing.T) {
		var nilLimiter *JoinRateLimiter
		assert.NoError(t, nilLimiter.Check(ctx, "user-1"))
		nilLimiter.Record(ctx, "user-1")

		disabled := NewJoinRateLimiter(nil, 3, time.Hour)
		assert.NoError(t, disabled.Check(ctx, "user-1"))
	})
}
