package handler

import (
	"errors"
	"net/http"
	"reflect"

	"showtix/internal/apierror"
	"showtix/internal/ledger"
	"showtix/internal/rangecodec"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeLedgerError maps ledger error values onto HTTP responses. State
// conflicts are 409 (the caller raced another actor); everything else in the
// taxonomy is a 422 the caller can fix by correcting the request. Unknown
// errors fall through as a generic 400.
func writeLedgerError(c *gin.Context, err error) {
	var (
		formatErr   *ledger.FormatError
		dupErr      *ledger.DuplicateError
		emptyErr    *ledger.EmptyBatchError
		conflictErr *ledger.ConflictError
		stateErr    *ledger.InvalidStateError
		overlapErr  *ledger.OverlapError
		discountErr *ledger.InvalidDiscountError
	)
	switch {
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, apierror.NewLedger("conflict", conflictErr.Error(),
			rangecodec.Compress(conflictErr.Numbers())))
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, apierror.NewLedger("invalid_state", stateErr.Error(),
			rangecodec.Compress(stateErr.Numbers())))
	case errors.As(err, &formatErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewLedger("format", formatErr.Error(), ""))
	case errors.As(err, &dupErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewLedger("duplicate", dupErr.Error(),
			rangecodec.Compress([]int{dupErr.ControlNumber})))
	case errors.As(err, &emptyErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewLedger("empty_batch", emptyErr.Error(), ""))
	case errors.As(err, &overlapErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewLedger("overlap", overlapErr.Error(),
			rangecodec.Compress(overlapErr.ControlNumbers)))
	case errors.As(err, &discountErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewLedger("invalid_discount", discountErr.Error(),
			rangecodec.Compress(discountErr.ControlNumbers)))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
