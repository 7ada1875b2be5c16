package wallet

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ParichayaHQ/credence/internal/did"
)

// validate is shared across the wallet package's request DTOs. Custom tags
// fill the gaps go-playground/validator's built-ins don't cover: DID syntax
// and the dotted claim-path grammar SelectivelyDisclosable fields use.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("did", validateDIDTag)
	validate.RegisterValidation("hashalg", validateHashAlgTag)
	validate.RegisterValidation("claimpath", validateClaimPathTag)
}

func validateDIDTag(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := did.ParseDID(value)
	return err == nil
}

func validateHashAlgTag(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "sha-256", "sha-384", "sha-512":
		return true
	default:
		return false
	}
}

// validateClaimPathTag accepts the dotted claim names dottedFieldToClaimPath
// splits on ("address.country"); each segment must be non-empty.
func validateClaimPathTag(fl validator.FieldLevel) bool {
	field := fl.Field().String()
	if field == "" {
		return false
	}
	for _, seg := range strings.Split(field, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}

// translateValidationError maps a validator.ValidationErrors into a
// WalletError, preserving the distinct ErrorInvalidDID code callers expect
// for DID-syntax failures specifically, and falling back to fallbackCode for
// everything else (missing required fields, bad hash algs, etc).
func translateValidationError(err error, fallbackCode, fallbackMessage string) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			if fe.Tag() == "did" {
				return NewWalletErrorWithDetails(ErrorInvalidDID, "invalid DID", fe.Field())
			}
		}
	}
	return NewWalletErrorWithDetails(fallbackCode, fallbackMessage, err.Error())
}
