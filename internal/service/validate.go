package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/listenupapp/recipes-server/internal/domain"
	domainerrors "github.com/listenupapp/recipes-server/internal/errors"
	"github.com/listenupapp/recipes-server/internal/store"
	"github.com/listenupapp/recipes-server/internal/validation"
)

// validate is a shared validator instance for request validation.
var validate = validation.New()

// notFoundOr maps store.ErrNotFound to a domain not found error with msg
// and wraps anything else with op.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound(msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// checkDecimal enforces the scale limit and a lower bound on a money-like value.
// With strict set the value must be greater than zero, otherwise at least zero.
func checkDecimal(field string, d decimal.Decimal, strict bool) error {
	if !d.Equal(d.Truncate(domain.MaxDecimalPlaces)) {
		return domainerrors.FieldError(field,
			fmt.Sprintf("ensure that there are no more than %d decimal places", domain.MaxDecimalPlaces))
	}
	switch {
	case strict && !d.IsPositive():
		return domainerrors.FieldError(field, "ensure this value is greater than 0")
	case !strict && d.IsNegative():
		return domainerrors.FieldError(field, "ensure this value is greater than or equal to 0")
	}
	return nil
}

// checkLink validates an optional URL. The empty string clears the link.
func checkLink(link *string) error {
	if link == nil || *link == "" {
		return nil
	}
	return validate.Var("link", *link, "url,max=255")
}

// checkIDCount rejects association or filter lists longer than domain.MaxIDList.
func checkIDCount(field string, ids []int64) error {
	if len(ids) > domain.MaxIDList {
		return domainerrors.FieldError(field,
			fmt.Sprintf("ensure this list has no more than %d ids", domain.MaxIDList))
	}
	return nil
}
