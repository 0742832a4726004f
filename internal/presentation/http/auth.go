package httppresentation

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

const headerAdminKey = "X-Admin-Key"

type customerKey struct{}

func customerIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(customerKey{}).(string)
	return id
}

// requireCustomer accepts "Authorization: Bearer <token>" and stores the customer id on the context.
func (h *Handler) requireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" || h.opts.Tokens == nil {
			writeError(w, http.StatusUnauthorized, errUnauthorized)
			return
		}
		customerID, err := h.opts.Tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			logctx.FromOr(r.Context(), h.log).Debug("token_rejected", observability.F("error", err))
			writeError(w, http.StatusUnauthorized, errUnauthorized)
			return
		}

		ctx, _ := logctx.Enrich(r.Context(), h.log, observability.F("customer_id", customerID))
		ctx = context.WithValue(ctx, customerKey{}, customerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.opts.AdminKey != "" {
			got := r.Header.Get(headerAdminKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.opts.AdminKey)) != 1 {
				writeError(w, http.StatusUnauthorized, errUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
