package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/infrastructure/persistence/mappers"
	"github.com/blink-inc/blink/internal/infrastructure/persistence/models"
	"github.com/blink-inc/blink/internal/shared/db"
	"github.com/blink-inc/blink/internal/shared/logger"
)

// PasskeyCredentialRepository implements passkey.Repository on gorm.
type PasskeyCredentialRepository struct {
	db     *gorm.DB
	mapper *mappers.PasskeyCredentialMapper
	logger logger.Interface
}

var _ passkey.Repository = (*PasskeyCredentialRepository)(nil)

func NewPasskeyCredentialRepository(gdb *gorm.DB, logger logger.Interface) *PasskeyCredentialRepository {
	return &PasskeyCredentialRepository{
		db:     gdb,
		mapper: mappers.NewPasskeyCredentialMapper(),
		logger: logger,
	}
}

func (r *PasskeyCredentialRepository) Insert(ctx context.Context, credential *passkey.Credential) error {
	model, err := r.mapper.ToModel(credential)
	if err != nil {
		r.logger.Errorw("failed to map passkey credential entity to model", "error", err)
		return fmt.Errorf("failed to map passkey credential entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return passkey.ErrCredentialAlreadyRegistered
		}
		r.logger.Errorw("failed to create passkey credential in database", "error", err)
		return fmt.Errorf("failed to create passkey credential: %w", err)
	}

	if err := credential.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set passkey credential ID: %w", err)
	}

	r.logger.Infow("passkey credential created", "sid", model.SID, "owner", model.OwnerSubjectID)
	return nil
}

func (r *PasskeyCredentialRepository) FindBySID(ctx context.Context, sid string) (*passkey.Credential, error) {
	return r.findOne(ctx, "sid = ?", sid)
}

func (r *PasskeyCredentialRepository) FindByCredentialID(ctx context.Context, credentialID []byte) (*passkey.Credential, error) {
	if len(credentialID) == 0 {
		return nil, nil
	}
	return r.findOne(ctx, "credential_id = ?", credentialID)
}

func (r *PasskeyCredentialRepository) findOne(ctx context.Context, query string, arg any) (*passkey.Credential, error) {
	var model models.PasskeyCredentialModel

	if err := db.GetTxFromContext(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get passkey credential", "query", query, "error", err)
		return nil, fmt.Errorf("failed to get passkey credential: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map passkey credential model to entity", "sid", model.SID, "error", err)
		return nil, fmt.Errorf("failed to map passkey credential: %w", err)
	}

	return entity, nil
}

func (r *PasskeyCredentialRepository) FindAllForIdentity(ctx context.Context, owner uuid.UUID) ([]*passkey.Credential, error) {
	var list []*models.PasskeyCredentialModel

	if err := db.GetTxFromContext(ctx, r.db).Scopes(db.OwnedBy(owner), db.NewestFirst()).Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list passkey credentials", "owner", owner, "error", err)
		return nil, fmt.Errorf("failed to list passkey credentials: %w", err)
	}

	credentials, err := r.mapper.ToEntities(list)
	if err != nil {
		r.logger.Errorw("failed to map passkey credential models to entities", "owner", owner, "error", err)
		return nil, fmt.Errorf("failed to map passkey credentials: %w", err)
	}

	return credentials, nil
}

// UpdateCounterAndLastUsed is a compare-and-set on the stored counter. Two
// concurrent assertions carrying the same counter cannot both succeed.
func (r *PasskeyCredentialRepository) UpdateCounterAndLastUsed(
	ctx context.Context,
	credentialID []byte,
	expected, next uint32,
	usedAt time.Time,
) error {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PasskeyCredentialModel{}).
		Where("credential_id = ? AND sign_count = ?", credentialID, expected).
		Updates(map[string]any{
			"sign_count":   next,
			"last_used_at": usedAt,
			"updated_at":   usedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update passkey sign count", "error", result.Error)
		return fmt.Errorf("failed to update passkey sign count: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: stored counter moved from %d", passkey.ErrPossibleCloneOrReplay, expected)
	}

	return nil
}

func (r *PasskeyCredentialRepository) DeleteBySID(ctx context.Context, sid string, owner uuid.UUID) error {
	result := db.GetTxFromContext(ctx, r.db).
		Scopes(db.OwnedBy(owner)).
		Where("sid = ?", sid).
		Delete(&models.PasskeyCredentialModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete passkey credential", "sid", sid, "error", result.Error)
		return fmt.Errorf("failed to delete passkey credential: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return passkey.ErrCredentialNotFound
	}

	r.logger.Infow("passkey credential deleted", "sid", sid, "owner", owner)
	return nil
}

func (r *PasskeyCredentialRepository) Rename(ctx context.Context, sid string, owner uuid.UUID, name string) error {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PasskeyCredentialModel{}).
		Scopes(db.OwnedBy(owner)).
		Where("sid = ?", sid).
		Update("display_name", name)
	if result.Error != nil {
		r.logger.Errorw("failed to rename passkey credential", "sid", sid, "error", result.Error)
		return fmt.Errorf("failed to rename passkey credential: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return passkey.ErrCredentialNotFound
	}

	return nil
}
