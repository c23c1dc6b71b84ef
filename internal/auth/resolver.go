package auth

import (
	"encoding/json"

	"hqchat_backend/internal/logger"
	"hqchat_backend/internal/models"
	"hqchat_backend/pkg/apperrors"
)

// UserSource - минимальный срез хранилища пользователей, нужный для
// резолва принципала.
type UserSource interface {
	FindByEmail(email string) (*models.User, error)
}

// Resolver превращает сырой bearer-токен в Principal.
type Resolver struct {
	Users  UserSource
	Secret string
	Alg    string
}

func NewResolver(users UserSource, secret, alg string) *Resolver {
	return &Resolver{Users: users, Secret: secret, Alg: alg}
}

// ResolveBearer валидирует токен и резолвит его субъект в принципала с
// набором разрешений. Причины отказа: invalid-signature, expired,
// malformed, unknown-subject.
func (r *Resolver) ResolveBearer(tokenStr string) (*Principal, error) {
	if tokenStr == "" {
		return nil, apperrors.ErrCredentialMissing
	}

	claims, err := ParseToken(tokenStr, r.Secret, r.Alg)
	if err != nil {
		switch err {
		case ErrTokenExpired:
			return nil, apperrors.ErrTokenExpired
		case ErrTokenMalformed:
			return nil, apperrors.ErrCredentialMalformed
		default:
			return nil, apperrors.ErrSignatureInvalid
		}
	}

	if claims.Email == "" {
		logger.Warn("Token payload missing user email identifier")
		return nil, apperrors.ErrCredentialMalformed
	}

	user, err := r.Users.FindByEmail(claims.Email)
	if err != nil || user == nil {
		return nil, apperrors.ErrUnknownSubject
	}

	var raw []string
	if len(user.Permissions) > 0 {
		if err := json.Unmarshal(user.Permissions, &raw); err != nil {
			logger.Warn("Failed to decode user permissions", "user_id", user.ID, "error", err)
		}
	}

	return &Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Permissions: NewPermissionSet(raw),
	}, nil
}
