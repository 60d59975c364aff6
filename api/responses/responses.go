package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/angelmondragon/sweetdelights-backend/pkg/types"
)

var errUnknown = errors.New("unknown error")

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError writes the error envelope for err. Untyped errors become
// INTERNAL_ERROR; codes that hide their message answer with the generic one.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errUnknown
	}
	status, body := publicError(err)

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		if status >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}
	writeJSON(w, status, types.ErrorEnvelope{Error: body})
}

func publicError(err error) (int, types.APIError) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	body := types.APIError{Code: string(typed.Code()), Message: meta.PublicMessage, Retryable: meta.Retryable}
	if !meta.HideMessage && typed.Message() != "" {
		body.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		body.Details = typed.Details()
	}
	return meta.HTTPStatus, body
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are gone by now; a failed encode can only be dropped.
	_ = json.NewEncoder(w).Encode(payload)
}
