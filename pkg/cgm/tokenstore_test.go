package cgm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/db"
	_ "liyu1981.xyz/glucose-watch-service/pkg/testing"
)

func TestTokenStore(t *testing.T) {
	common.SetTestLoggerNop()

	dbInstance, err := db.Open(db.UseMemorySqliteDialector())
	require.NoError(t, err)
	defer dbInstance.Close()

	store := NewTokenStore(*dbInstance)
	ctx := context.Background()

	_, err = store.Load(ctx, 1)
	assert.ErrorIs(t, err, ErrNotLinked)

	expiry := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, 1, &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer", Expiry: expiry}))
	require.NoError(t, store.Save(ctx, 1, &oauth2.Token{AccessToken: "a2", RefreshToken: "r2", TokenType: "Bearer", Expiry: expiry.Add(time.Hour)}))

	token, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a2", token.AccessToken)
	assert.Equal(t, "r2", token.RefreshToken)
	assert.True(t, token.Expiry.Equal(expiry.Add(time.Hour)))

	var rows int64
	dbInstance.Conn.Table("provider_tokens").Count(&rows)
	assert.Equal(t, int64(1), rows)
}
