package cgm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/glucose-watch-service/pkg/db"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

// TokenStore keeps provider tokens in the provider_tokens table.
type TokenStore struct {
	Db       db.DB
	Provider string
}

func NewTokenStore(database db.DB) *TokenStore {
	return &TokenStore{Db: database, Provider: models.ProviderDexcom}
}

func (s *TokenStore) Load(ctx context.Context, userID uint) (*oauth2.Token, error) {
	var row models.ProviderToken
	err := s.Db.Conn.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, s.Provider).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("load provider token: %w", err)
	}

	return &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    row.TokenType,
		Expiry:       row.Expiry,
	}, nil
}

func (s *TokenStore) Save(ctx context.Context, userID uint, token *oauth2.Token) error {
	row := models.ProviderToken{
		UserID:       userID,
		Provider:     s.Provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry.UTC(),
	}
	err := s.Db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_type", "expiry", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save provider token: %w", err)
	}
	return nil
}
