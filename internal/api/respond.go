package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/doughlab/pizzeria/internal/domain/catalog"
	"github.com/doughlab/pizzeria/internal/domain/order"
	"github.com/doughlab/pizzeria/internal/domain/user"
	"github.com/doughlab/pizzeria/internal/payment"
)

// maxBodySize caps request bodies at 1 MiB.
const maxBodySize = 1 << 20

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Best effort: the status is already written, an encode failure here
	// means the client went away.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Code: code, Message: message})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP statuses. Unrecognized
// errors become 500 after being logged with full context.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		quantityErr   *order.InvalidQuantityError
		selectionErr  *order.EmptySelectionError
		statusErr     *order.InvalidStatusError
		transitionErr *order.InvalidTransitionError
		categoryErr   *catalog.InvalidCategoryError
	)

	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrNotCancellable),
		errors.Is(err, order.ErrStatusConflict),
		errors.Is(err, catalog.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, catalog.ErrNegativeStock),
		errors.Is(err, payment.ErrSignatureMismatch),
		errors.As(err, &quantityErr),
		errors.As(err, &selectionErr),
		errors.As(err, &statusErr),
		errors.As(err, &categoryErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
