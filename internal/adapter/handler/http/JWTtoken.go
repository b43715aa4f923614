package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errInvalidClaims = errors.New("invalid token claims")

type JWTTokenService struct {
	secretKey []byte
	logger    ports.LoggerPort
}

func NewJWTTokenService(secretKey string, logger ports.LoggerPort) *JWTTokenService {
	return &JWTTokenService{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

// VerifyToken accepts HMAC-signed tokens issued by the user service. They carry id, user_id and role claims.
func (j *JWTTokenService) VerifyToken(token string) (*domain.TokenPayload, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithExpirationRequired(), jwt.WithLeeway(30*time.Second))
	if err != nil {
		j.logger.Warn("Failed to parse jwt", map[string]interface{}{
			"error":  err.Error(),
			"method": "VerifyToken",
		})
		return nil, err
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	id, err := uuidClaim(claims, "id")
	if err != nil {
		return nil, err
	}
	userID, err := uuidClaim(claims, "user_id")
	if err != nil {
		return nil, err
	}

	roleClaimed, _ := claims["role"].(string)
	role := domain.UserRole(roleClaimed)
	if role != domain.Admin && role != domain.AppUser {
		j.logger.Warn("Invalid role in token", map[string]interface{}{
			"role":    roleClaimed,
			"user_id": userID.String(),
		})
		return nil, fmt.Errorf("%w: role %q", errInvalidClaims, roleClaimed)
	}

	return &domain.TokenPayload{
		ID:     id,
		UserID: userID,
		Role:   role,
	}, nil
}

func uuidClaim(claims jwt.MapClaims, name string) (uuid.UUID, error) {
	raw, ok := claims[name].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: missing %s", errInvalidClaims, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a UUID", errInvalidClaims, name)
	}
	return id, nil
}
