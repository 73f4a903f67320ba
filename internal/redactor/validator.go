package redactor

import (
	"github.com/aisa-it/redactor/internal/redactor/commands"
	"github.com/aisa-it/redactor/internal/redactor/export"
	"github.com/go-playground/validator"
)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	err := v.RegisterValidation("format", formatValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("exportFormat", exportFormatValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("policy", policyValidator)
	if err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func formatValidator(fl validator.FieldLevel) bool {
	_, err := commands.ParseFormat(fl.Field().String())
	return err == nil
}

func exportFormatValidator(fl validator.FieldLevel) bool {
	_, err := export.ParseFormat(fl.Field().String())
	return err == nil
}

func policyValidator(fl validator.FieldLevel) bool {
	_, ok := sanitizerConfigs[fl.Field().String()]
	return ok
}
