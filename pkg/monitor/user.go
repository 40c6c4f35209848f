package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/auth"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// register creates a parent account. The first parent ever registered
// becomes the admin.
func (m *Monitor) register(ctx context.Context, input models.RegisterInput) (*models.User, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameMonitor,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryUser),
	)

	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperr.Invalid("email and password are required")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleParent,
	}

	err = m.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("email already registered")
		}

		var parents int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleParent).Count(&parents).Error; err != nil {
			return err
		}
		user.IsAdmin = parents == 0

		return tx.Create(&user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Conflict("email already registered")
	}
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("User registered", zap.Uint("userId", user.ID), zap.Bool("isAdmin", user.IsAdmin))
	return &user, nil
}

func (m *Monitor) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := m.Db.Conn.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return &user, nil
}

func (m *Monitor) getUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := m.Db.Conn.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func (m *Monitor) getAthlete(ctx context.Context) (*models.User, error) {
	var user models.User
	err := m.Db.Conn.WithContext(ctx).Where("is_athlete = ?", true).Order("id").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load athlete: %w", err)
	}
	return &user, nil
}

// setAthlete designates the user with email as the single monitored athlete.
func (m *Monitor) setAthlete(ctx context.Context, email string) (*models.User, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameMonitor,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryUser),
	)

	var user models.User
	err := m.Db.Conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return err
		}

		err := tx.Model(&models.User{}).
			Where("is_athlete = ? AND id <> ?", true, user.ID).
			Update("is_athlete", false).Error
		if err != nil {
			return err
		}

		user.IsAthlete = true
		user.Role = models.RoleAthlete
		return tx.Model(&user).Updates(map[string]any{"is_athlete": true, "role": models.RoleAthlete}).Error
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("set athlete: %w", err)
	}

	logger.Info("Athlete designated", zap.Uint("userId", user.ID))
	return &user, nil
}

type IUserImpl struct {
	monitor *Monitor
}

func (iu *IUserImpl) Register(ctx context.Context, input models.RegisterInput) (*models.User, error) {
	return iu.monitor.register(ctx, input)
}

func (iu *IUserImpl) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	return iu.monitor.authenticate(ctx, email, password)
}

func (iu *IUserImpl) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return iu.monitor.getUser(ctx, id)
}

func (iu *IUserImpl) GetAthlete(ctx context.Context) (*models.User, error) {
	return iu.monitor.getAthlete(ctx)
}

func (iu *IUserImpl) SetAthlete(ctx context.Context, email string) (*models.User, error) {
	return iu.monitor.setAthlete(ctx, email)
}

func (m *Monitor) GetIUser() IUser {
	return &IUserImpl{monitor: m}
}
