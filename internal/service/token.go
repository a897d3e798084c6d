package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/entity"
	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
)

// ErrSystemRoleToken: роль system не выдаётся через токены, она доступна только внутренним вызовам.
var ErrSystemRoleToken = errors.New("token: роль system не может быть выдана")

// TokenManager выпускает и проверяет access-токены участников.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
	now          func() time.Time
}

func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

// GenerateAccess выпускает токен с клеймами sub и role.
func (m *TokenManager) GenerateAccess(actor entity.Actor) (string, time.Time, error) {
	if actor.Role == valueobject.ActorRoleSystem {
		return "", time.Time{}, ErrSystemRoleToken
	}
	if !actor.Role.IsValid() || actor.ID == uuid.Nil {
		return "", time.Time{}, jwt.ErrTokenInvalidClaims
	}

	now := m.now()
	exp := now.Add(m.accessTTL)
	claims := jwt.MapClaims{
		"sub":  actor.ID.String(),
		"role": string(actor.Role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// ParseAccess проверяет подпись и срок токена и возвращает участника.
func (m *TokenManager) ParseAccess(token string) (entity.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return entity.Actor{}, err
	}
	if !parsed.Valid {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return entity.Actor{}, err
	}

	rawRole, _ := claims["role"].(string)
	role, err := valueobject.NewActorRole(rawRole)
	if err != nil {
		return entity.Actor{}, jwt.ErrTokenInvalidClaims
	}
	if role == valueobject.ActorRoleSystem {
		return entity.Actor{}, ErrSystemRoleToken
	}

	return entity.Actor{ID: userID, Role: role}, nil
}
