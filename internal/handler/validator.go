package handler

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/KasumiMercury/primind-medication-reminder/internal/domain"
)

var ErrValidatorEngine = errors.New("unexpected binding validator engine")

// RegisterValidators adds the custom binding rules used by request bodies.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return ErrValidatorEngine
	}
	return v.RegisterValidation("clocktime", validateClockTime)
}

func validateClockTime(fl validator.FieldLevel) bool {
	_, err := domain.ParseClockTime(fl.Field().String())
	return err == nil
}
