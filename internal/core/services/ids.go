package services

import (
	"fmt"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func parseID(logger ports.LoggerPort, kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Error("Invalid UUID format", map[string]interface{}{
			kind + "_id": raw,
			"error":      err.Error(),
		})
		return uuid.Nil, fmt.Errorf("%w: invalid %s ID %q", domain.ErrValidation, kind, raw)
	}
	return id, nil
}

func validateStruct(validate *validator.Validate, logger ports.LoggerPort, entity string, v interface{}) error {
	if err := validate.Struct(v); err != nil {
		logger.Error(entity+" validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}

func bikeCacheKey(bikeID uuid.UUID) string {
	return fmt.Sprintf("bike:%s", bikeID.String())
}
