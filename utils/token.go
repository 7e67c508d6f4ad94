package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingSecret = errors.New("jwt signing secret is not configured")
)

type TokenPair struct {
	Access  string
	Refresh string
}

type Claims struct {
	ID   uuid.UUID
	Role models.Role
	Kind TokenKind
}

// AccessSecret reads JWT_ACCESS_SECRET, falling back to JWT_SECRET.
func AccessSecret() []byte {
	return []byte(config.Get("JWT_ACCESS_SECRET", config.Get("JWT_SECRET", "")))
}

func RefreshSecret() []byte {
	return []byte(config.Get("JWT_REFRESH_SECRET", ""))
}

// CheckSecrets fails when either signing secret is empty or both are the same.
func CheckSecrets() error {
	access, refresh := AccessSecret(), RefreshSecret()
	if len(access) == 0 {
		return fmt.Errorf("%w: set JWT_ACCESS_SECRET", ErrMissingSecret)
	}
	if len(refresh) == 0 {
		return fmt.Errorf("%w: set JWT_REFRESH_SECRET", ErrMissingSecret)
	}
	if bytes.Equal(access, refresh) {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return nil
}

func AccessTTL() time.Duration  { return config.Duration("ACCESS_TOKEN_TTL", 24*time.Hour) }
func RefreshTTL() time.Duration { return config.Duration("REFRESH_TOKEN_TTL", 7*24*time.Hour) }

func secretFor(kind TokenKind) []byte {
	if kind == RefreshToken {
		return RefreshSecret()
	}
	return AccessSecret()
}

func ttlFor(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return RefreshTTL()
	}
	return AccessTTL()
}

func SignToken(kind TokenKind, id uuid.UUID, role models.Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":   id.String(),
		"role": string(role),
		"typ":  string(kind),
		"iat":  now.Unix(),
		"exp":  now.Add(ttlFor(kind)).Unix(),
	}
	secret := secretFor(kind)
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func IssueTokenPair(id uuid.UUID, role models.Role) (TokenPair, error) {
	access, err := SignToken(AccessToken, id, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := SignToken(RefreshToken, id, role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func ParseToken(kind TokenKind, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		secret := secretFor(kind)
		if len(secret) == 0 {
			return nil, ErrMissingSecret
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return ClaimsFromMap(mc, kind)
}

func ClaimsFromMap(mc jwt.MapClaims, kind TokenKind) (*Claims, error) {
	if typ, _ := mc["typ"].(string); typ != string(kind) {
		return nil, ErrInvalidToken
	}
	rawID, _ := mc["id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role := models.Role(fmt.Sprint(mc["role"]))
	if !role.Valid() {
		return nil, ErrInvalidToken
	}
	return &Claims{ID: id, Role: role, Kind: kind}, nil
}

// CookieName resolves the per-role cookie, e.g. USER_ACCESS_TOKEN_NAME.
func CookieName(role models.Role, kind TokenKind) string {
	key := fmt.Sprintf("%s_%s_TOKEN_NAME", strings.ToUpper(string(role)), strings.ToUpper(string(kind)))
	return config.Get(key, fmt.Sprintf("%s_%s_token", role, kind))
}
