package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/colivhub/portal-server-go/internal/errors"
	"github.com/colivhub/portal-server-go/internal/httputil"
	"github.com/colivhub/portal-server-go/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// decodeJSON decodes and validates a request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.PayloadTooLarge(maxErr.Limit)
		}
		return apperrors.ValidationError("Invalid JSON body")
	}
	return service.ValidateStruct(v)
}

// listingReady sets X-Cache and reports whether the listing can be served.
// A listing that failed before anything was ever cached cannot.
func listingReady[T any](w http.ResponseWriter, listing service.Listing[T]) bool {
	if listing.Err != nil && listing.Items == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeUnavailable, "Catalog temporarily unavailable", listing.Err))
		return false
	}
	w.Header().Set("X-Cache", string(listing.Status))
	return true
}

type listResponse struct {
	Items any  `json:"items"`
	Stale bool `json:"stale"`
}
