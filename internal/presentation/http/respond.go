package httppresentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
	dombanner "github.com/Zhima-Mochi/storefront/internal/domain/banner"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domcustomer "github.com/Zhima-Mochi/storefront/internal/domain/customer"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

const maxBodyBytes = 1 << 20

var errUnauthorized = errors.New("unauthorized")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	_, err := decodeBody(w, r, nil, dst)
	return err
}

// decodeBody reads the body once, checks it against schema when one is given, and decodes
// it into dst. The raw bytes are returned for callers that persist them.
func decodeBody(w http.ResponseWriter, r *http.Request, schema gojsonschema.JSONLoader, dst any) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, application.Invalid(fmt.Errorf("read body: %w", err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, application.Invalid(errors.New("request body is required"))
	}
	if schema != nil {
		if err := validateSchema(schema, raw); err != nil {
			return nil, err
		}
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return nil, application.Invalid(fmt.Errorf("malformed body: %w", err))
	}
	return raw, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrValidation),
		errors.Is(err, domcatalog.ErrInsufficientStock),
		errors.Is(err, domcatalog.ErrInvalidQuantity),
		errors.Is(err, domcustomer.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized),
		errors.Is(err, domcustomer.ErrInvalidCredentials),
		errors.Is(err, dompayment.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, domcustomer.ErrInactive):
		return http.StatusForbidden
	case errors.Is(err, domcatalog.ErrNotFound),
		errors.Is(err, domcustomer.ErrNotFound),
		errors.Is(err, domcustomer.ErrItemNotInCart),
		errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dompayment.ErrNotFound),
		errors.Is(err, dombanner.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domcatalog.ErrConflict),
		errors.Is(err, domcustomer.ErrEmailTaken),
		errors.Is(err, domorder.ErrConflict),
		errors.Is(err, dompayment.ErrDuplicateTransaction),
		errors.Is(err, dombanner.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apppayment.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError maps application errors to a status. Server-side failures are logged
// with the cause and answered with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logctx.FromOr(r.Context(), nil).Error("http_request_failed",
			observability.F("status", status),
			observability.F("error", err),
		)
		if status == http.StatusInternalServerError {
			err = errors.New(http.StatusText(status))
		}
	}
	writeError(w, status, err)
}
