package mappers

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/domain/identity"
	"github.com/blink-inc/blink/internal/infrastructure/persistence/models"
)

// IdentityMapper converts identities and password credentials.
type IdentityMapper struct{}

func NewIdentityMapper() *IdentityMapper {
	return &IdentityMapper{}
}

func (m *IdentityMapper) ToEntity(model *models.IdentityModel) (*identity.Identity, error) {
	if model == nil {
		return nil, nil
	}
	subject, err := uuid.Parse(model.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid subject id %q: %w", model.SubjectID, err)
	}
	return identity.ReconstructIdentity(subject, model.Username, model.Email, model.Roles, model.CreatedAt, model.LastLoginAt)
}

func (m *IdentityMapper) ToModel(entity *identity.Identity) *models.IdentityModel {
	return &models.IdentityModel{
		SubjectID:   entity.Subject(),
		Username:    entity.Username(),
		Email:       entity.Email(),
		Roles:       entity.Roles().Bits(),
		LastLoginAt: entity.LastLoginAt(),
		CreatedAt:   entity.CreatedAt(),
	}
}

func (m *IdentityMapper) PasswordToEntity(model *models.PasswordCredentialModel) (*identity.PasswordCredential, error) {
	if model == nil {
		return nil, nil
	}
	owner, err := uuid.Parse(model.OwnerSubjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner subject %q: %w", model.OwnerSubjectID, err)
	}
	return identity.ReconstructPasswordCredential(owner, model.Hash, model.LastChangedAt, model.LastUsedAt), nil
}

func (m *IdentityMapper) PasswordToModel(entity *identity.PasswordCredential) *models.PasswordCredentialModel {
	return &models.PasswordCredentialModel{
		OwnerSubjectID: entity.OwnerSubjectID().String(),
		Hash:           entity.Hash(),
		LastChangedAt:  entity.LastChangedAt(),
		LastUsedAt:     entity.LastUsedAt(),
	}
}
