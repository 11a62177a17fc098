// Package responses renders the shared success/error envelopes and maps
// domain error codes onto HTTP statuses.
package responses

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/curbsideops/curbside-backend/pkg/errors"
	"github.com/curbsideops/curbside-backend/pkg/logger"
	"github.com/curbsideops/curbside-backend/pkg/types"
)

// WriteSuccess renders a success envelope with the given status.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Success: true, Data: data})
}

// WritePage renders a success envelope with cursor pagination metadata.
func WritePage(w http.ResponseWriter, data any, count int, nextCursor string) {
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{
		Success: true,
		Data:    data,
		Meta: types.PageMeta{
			NextCursor: nextCursor,
			HasMore:    nextCursor != "",
			Count:      count,
		},
	})
}

// WriteError maps the error to the envelope and status its code dictates.
// Non-domain errors surface as 500s with a generic message; the full chain
// goes to the log, never to the client.
func WriteError(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, err error) {
	code := pkgerrors.CodeInternal
	message := ""
	var details any

	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
		message = typed.Message()
		details = typed.Details()
	}

	meta := pkgerrors.MetadataFor(code)
	if message == "" {
		message = meta.PublicMessage
	}
	if !meta.DetailsAllowed {
		details = nil
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		ctx = logg.WithField(ctx, "error_dump", dump)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request failed", err)
		} else {
			logg.Warn(ctx, "request rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{
		Success: false,
		Error: types.ErrorBody{
			Code:    string(code),
			Message: message,
			Details: details,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
