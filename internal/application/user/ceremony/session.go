package ceremony

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/go-webauthn/webauthn/webauthn"
)

type kind string

const (
	kindRegistration   kind = "registration"
	kindAuthentication kind = "authentication"
)

type credentialParameter struct {
	Type      string `json:"type"`
	Algorithm int64  `json:"alg"`
}

// storedSession is the opaque secret kept in the challenge store between
// begin and complete.
type storedSession struct {
	Kind             kind                  `json:"kind"`
	Challenge        string                `json:"challenge"`
	RelyingPartyID   string                `json:"rp_id"`
	UserID           []byte                `json:"user_id,omitempty"`
	UserVerification string                `json:"user_verification"`
	Expires          int64                 `json:"expires,omitempty"` // unix millis, 0 when unset
	CredParams       []credentialParameter `json:"cred_params,omitempty"`
	Mediation        string                `json:"mediation,omitempty"`
}

func encodeSession(k kind, session *webauthn.SessionData) ([]byte, error) {
	if session == nil || session.Challenge == "" {
		return nil, fmt.Errorf("session data without challenge")
	}

	var params []credentialParameter
	for _, cp := range session.CredParams {
		params = append(params, credentialParameter{
			Type:      string(cp.Type),
			Algorithm: int64(cp.Algorithm),
		})
	}

	var expires int64
	if !session.Expires.IsZero() {
		expires = session.Expires.UnixMilli()
	}

	data, err := json.Marshal(storedSession{
		Kind:             k,
		Challenge:        session.Challenge,
		RelyingPartyID:   session.RelyingPartyID,
		UserID:           session.UserID,
		UserVerification: string(session.UserVerification),
		Expires:          expires,
		CredParams:       params,
		Mediation:        string(session.Mediation),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return data, nil
}

// decodeSession restores session data, refusing a secret stored by the other ceremony.
func decodeSession(want kind, data []byte) (*webauthn.SessionData, error) {
	var s storedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if s.Kind != want {
		return nil, fmt.Errorf("session belongs to %q ceremony", s.Kind)
	}

	var params []protocol.CredentialParameter
	for _, cp := range s.CredParams {
		params = append(params, protocol.CredentialParameter{
			Type:      protocol.CredentialType(cp.Type),
			Algorithm: webauthncose.COSEAlgorithmIdentifier(cp.Algorithm),
		})
	}

	session := &webauthn.SessionData{
		Challenge:        s.Challenge,
		RelyingPartyID:   s.RelyingPartyID,
		UserID:           s.UserID,
		UserVerification: protocol.UserVerificationRequirement(s.UserVerification),
		CredParams:       params,
		Mediation:        protocol.CredentialMediationRequirement(s.Mediation),
	}
	if s.Expires != 0 {
		session.Expires = time.UnixMilli(s.Expires)
	}
	return session, nil
}
