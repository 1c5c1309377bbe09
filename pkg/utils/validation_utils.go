package utils

import (
	"fmt"

	"restaurant_pos_backend/internal/pricing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the project's custom binding tags to gin's validator.
//
//	in_mobile      10-digit mobile number starting with 6-9
//	discount_step  one of pricing.AllowedDiscounts
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("in_mobile", func(fl validator.FieldLevel) bool {
		return IsValidMobile(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("registering in_mobile: %w", err)
	}
	if err := v.RegisterValidation("discount_step", func(fl validator.FieldLevel) bool {
		return pricing.IsAllowedDiscount(int(fl.Field().Int()))
	}); err != nil {
		return fmt.Errorf("registering discount_step: %w", err)
	}
	return nil
}
