package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/infrastructure/persistence/models"
	"github.com/blink-inc/blink/internal/shared/mapper"
)

// PasskeyCredentialMapper converts between passkey.Credential and its model.
type PasskeyCredentialMapper struct{}

func NewPasskeyCredentialMapper() *PasskeyCredentialMapper {
	return &PasskeyCredentialMapper{}
}

func (m *PasskeyCredentialMapper) ToEntity(model *models.PasskeyCredentialModel) (*passkey.Credential, error) {
	if model == nil {
		return nil, nil
	}

	var transports []string
	if len(model.Transports) > 0 {
		if err := json.Unmarshal(model.Transports, &transports); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transports: %w", err)
		}
	}

	owner, err := uuid.Parse(model.OwnerSubjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner subject %q: %w", model.OwnerSubjectID, err)
	}

	// Empty or legacy AAGUID columns read as the nil model id.
	aaguid, _ := uuid.Parse(model.AAGUID)

	credential, err := passkey.ReconstructCredential(
		model.ID,
		model.SID,
		model.CredentialID,
		owner,
		model.PublicKey,
		model.AttestationType,
		aaguid,
		model.SignCount,
		model.BackupEligible,
		model.BackupState,
		transports,
		model.DisplayName,
		model.LastUsedAt,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct passkey credential entity: %w", err)
	}

	return credential, nil
}

func (m *PasskeyCredentialMapper) ToModel(entity *passkey.Credential) (*models.PasskeyCredentialModel, error) {
	if entity == nil {
		return nil, nil
	}

	var transportsJSON []byte
	if len(entity.Transports()) > 0 {
		var err error
		transportsJSON, err = json.Marshal(entity.Transports())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal transports: %w", err)
		}
	}

	return &models.PasskeyCredentialModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		OwnerSubjectID:  entity.OwnerSubjectID().String(),
		CredentialID:    entity.CredentialID(),
		PublicKey:       entity.PublicKey(),
		AttestationType: entity.AttestationType(),
		AAGUID:          entity.AAGUID().String(),
		SignCount:       entity.SignCount(),
		BackupEligible:  entity.BackupEligible(),
		BackupState:     entity.BackupState(),
		Transports:      transportsJSON,
		DisplayName:     entity.DisplayName(),
		LastUsedAt:      entity.LastUsedAt(),
		CreatedAt:       entity.CreatedAt(),
	}, nil
}

func (m *PasskeyCredentialMapper) ToEntities(list []*models.PasskeyCredentialModel) ([]*passkey.Credential, error) {
	return mapper.MapSlicePtrWithKey(list, m.ToEntity, func(model *models.PasskeyCredentialModel) string { return model.SID })
}
