package application

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mantenix/inventory-service/internal/domain"
	apperrors "github.com/mantenix/inventory-service/pkg/errors"
	"github.com/mantenix/inventory-service/pkg/resilience"
)

// Error codes of the inventory domain
const (
	CodeInvalidQuantity                   = "INVALID_QUANTITY"
	CodeRequestNotEditable                = "REQUEST_NOT_EDITABLE"
	CodeInsufficientStock                 = "INSUFFICIENT_STOCK"
	CodeInsufficientStockAtChosenLocation = "INSUFFICIENT_STOCK_AT_CHOSEN_LOCATION"
	CodeTransferFailed                    = "TRANSFER_FAILED"
	CodeDuplicateCode                     = "DUPLICATE_CODE"
)

// ToAppError converts domain errors into AppErrors with structured details.
// Errors it does not recognise become internal errors.
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var (
		stockErr    *domain.StockError
		transferErr *domain.TransferError
		notFound    *domain.NotFoundError
	)

	switch {
	case errors.Is(err, domain.ErrForbidden):
		return apperrors.ErrForbidden(err.Error()).Wrap(err)

	case errors.As(err, &transferErr):
		return apperrors.NewAppError(CodeTransferFailed, "transfer aborted and rolled back", http.StatusInternalServerError).
			WithDetail("step", transferErr.Step).
			Wrap(err)

	case errors.As(err, &stockErr):
		code := CodeInsufficientStock
		if errors.Is(stockErr.Kind, domain.ErrInsufficientStockAtChosenLocation) {
			code = CodeInsufficientStockAtChosenLocation
		}
		appErr := apperrors.NewAppError(code, stockErr.Error(), http.StatusConflict).WithDetails(map[string]string{
			"inventoryItemId": stockErr.ItemID,
			"requested":       strconv.FormatInt(stockErr.Requested, 10),
			"available":       strconv.FormatInt(stockErr.Available, 10),
		})
		if !stockErr.Location.IsZero() {
			appErr.WithDetail("location", stockErr.Location.String())
		}
		if len(stockErr.Breakdown) > 0 {
			lines := make([]string, len(stockErr.Breakdown))
			for i, line := range stockErr.Breakdown {
				lines[i] = line.String()
			}
			appErr.WithDetail("locations", strings.Join(lines, "; "))
		}
		return appErr.Wrap(err)

	case errors.As(err, &notFound):
		return apperrors.ErrNotFoundWithID(notFound.Resource, notFound.ID).Wrap(err)
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.ErrNotFound("resource").Wrap(err)

	case errors.Is(err, domain.ErrInvalidQuantity):
		return apperrors.NewAppError(CodeInvalidQuantity, err.Error(), http.StatusBadRequest).Wrap(err)
	case errors.Is(err, domain.ErrRequestNotEditable):
		return apperrors.NewAppError(CodeRequestNotEditable, err.Error(), http.StatusConflict).Wrap(err)
	case errors.Is(err, domain.ErrDuplicateCode):
		return apperrors.NewAppError(CodeDuplicateCode, err.Error(), http.StatusConflict).Wrap(err)
	case errors.Is(err, domain.ErrConcurrentModification):
		return apperrors.ErrConflict(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMovement):
		return apperrors.ErrValidation(err.Error()).Wrap(err)

	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ErrServiceUnavailable("directory").Wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.ErrTimeout("request").Wrap(err)
	}

	return apperrors.ErrInternal("").Wrap(err)
}
