package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/infrastructure/persistence/mappers"
	"github.com/blink-inc/blink/internal/infrastructure/persistence/models"
	"github.com/blink-inc/blink/internal/shared/constants"
	"github.com/blink-inc/blink/internal/shared/db"
	"github.com/blink-inc/blink/internal/shared/logger"
)

// IdentityRepository implements identity.Repository on gorm.
type IdentityRepository struct {
	db     *gorm.DB
	txMgr  *db.TransactionManager
	mapper *mappers.IdentityMapper
	logger logger.Interface
}

var _ identity.Repository = (*IdentityRepository)(nil)

func NewIdentityRepository(gdb *gorm.DB, logger logger.Interface) *IdentityRepository {
	return &IdentityRepository{
		db:     gdb,
		txMgr:  db.NewTransactionManager(gdb),
		mapper: mappers.NewIdentityMapper(),
		logger: logger,
	}
}

func (r *IdentityRepository) Create(ctx context.Context, id *identity.Identity, password *identity.PasswordCredential) error {
	err := r.txMgr.RunInTransaction(ctx, func(ctx context.Context) error {
		tx := db.GetTxFromContext(ctx, r.db)
		if err := tx.Create(r.mapper.ToModel(id)).Error; err != nil {
			return err
		}
		if password != nil {
			if err := tx.Create(r.mapper.PasswordToModel(password)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return identity.ErrIdentityAlreadyExists
		}
		r.logger.Errorw("failed to create identity", "error", err)
		return fmt.Errorf("failed to create identity: %w", err)
	}

	r.logger.Infow("identity created", "subject", id.Subject())
	return nil
}

func (r *IdentityRepository) FindBySubject(ctx context.Context, subject uuid.UUID) (*identity.Identity, error) {
	return r.findOne(ctx, "subject_id = ?", subject.String())
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *IdentityRepository) FindByGoogleID(ctx context.Context, googleID string) (*identity.Identity, error) {
	var link models.GoogleLinkModel
	if err := db.GetTxFromContext(ctx, r.db).Where("google_id = ?", googleID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get google link: %w", err)
	}
	return r.findOne(ctx, "subject_id = ?", link.OwnerSubjectID)
}

func (r *IdentityRepository) findOne(ctx context.Context, query string, arg any) (*identity.Identity, error) {
	var model models.IdentityModel
	if err := db.GetTxFromContext(ctx, r.db).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get identity", "query", query, "error", err)
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map identity model to entity", "subject", model.SubjectID, "error", err)
		return nil, fmt.Errorf("failed to map identity: %w", err)
	}
	return entity, nil
}

func (r *IdentityRepository) FindPasswordCredential(ctx context.Context, owner uuid.UUID) (*identity.PasswordCredential, error) {
	var model models.PasswordCredentialModel
	if err := db.GetTxFromContext(ctx, r.db).Where("owner_subject_id = ?", owner.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get password credential: %w", err)
	}
	return r.mapper.PasswordToEntity(&model)
}

func (r *IdentityRepository) UpdatePasswordHash(ctx context.Context, owner uuid.UUID, hash string, changedAt time.Time) error {
	return r.updateOwned(ctx, &models.PasswordCredentialModel{}, owner, map[string]any{
		"hash":            hash,
		"last_changed_at": changedAt,
	})
}

func (r *IdentityRepository) TouchPasswordCredential(ctx context.Context, owner uuid.UUID, usedAt time.Time) error {
	return r.updateOwned(ctx, &models.PasswordCredentialModel{}, owner, map[string]any{
		"last_used_at": usedAt,
	})
}

func (r *IdentityRepository) updateOwned(ctx context.Context, model any, owner uuid.UUID, values map[string]any) error {
	result := db.GetTxFromContext(ctx, r.db).Model(model).Scopes(db.OwnedBy(owner)).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update %T: %w", model, result.Error)
	}
	if result.RowsAffected == 0 {
		return identity.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) LinkGoogleAccount(ctx context.Context, googleID string, owner uuid.UUID) error {
	link := &models.GoogleLinkModel{GoogleID: googleID, OwnerSubjectID: owner.String()}
	if err := db.GetTxFromContext(ctx, r.db).Create(link).Error; err != nil {
		if isDuplicateKey(err) {
			return identity.ErrIdentityAlreadyExists
		}
		return fmt.Errorf("failed to link google account: %w", err)
	}
	return nil
}

func (r *IdentityRepository) RecordLogin(ctx context.Context, subject uuid.UUID, at time.Time) error {
	result := db.GetTxFromContext(ctx, r.db).
		Table(constants.TableIdentities).
		Where("subject_id = ?", subject.String()).
		Update("last_login_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to record login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return identity.ErrIdentityNotFound
	}
	return nil
}
