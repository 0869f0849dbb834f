package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
	"github.com/matespatagonico/storefront/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteErrorWithData writes the error envelope but keeps a partial result
// under "data", e.g. an order that was placed before the cart clear failed.
func WriteErrorWithData(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error, data any) {
	status, apiErr := describe(ctx, logg, err)
	writeJSON(w, status, struct {
		Data  any            `json:"data,omitempty"`
		Error types.APIError `json:"error"`
	}{Data: data, Error: apiErr})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	status, apiErr := describe(ctx, logg, err)
	writeJSON(w, status, types.ErrorEnvelope{Error: apiErr})
}

func describe(ctx context.Context, logg *logger.Logger, err error) (int, types.APIError) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeStateConflict,
		pkgerrors.CodeDependency:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	apiErr := types.APIError{
		Code:      string(typed.Code()),
		Message:   msg,
		Retryable: meta.Retryable,
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			apiErr.Details = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		ctx = logg.WithFields(ctx, map[string]any{
			"error":          dump.TopMessage,
			"error_code":     dump.Code,
			"error_chain":    dump.Chain,
			"backend_status": dump.BackendStatus,
			"retryable":      dump.Retryable,
		})
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	return meta.HTTPStatus, apiErr
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
