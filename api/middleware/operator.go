package middleware

import (
	"net/http"
	"strings"

	"github.com/dmarsh-dev/lumapos-backend/api/responses"
	pkgerrors "github.com/dmarsh-dev/lumapos-backend/pkg/errors"
	"github.com/dmarsh-dev/lumapos-backend/pkg/logger"
)

const operatorIDHeader = "X-Operator-Id"

// Operator seeds the request context with the operator identity asserted by
// the upstream gateway. Identity verification happens before requests reach
// this service, so the header is trusted but required on mutating routes.
func Operator(logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operatorID := strings.TrimSpace(r.Header.Get(operatorIDHeader))
			if operatorID == "" && required {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing operator identity"))
				return
			}

			ctx := r.Context()
			if operatorID != "" {
				ctx = WithOperatorID(ctx, operatorID)
				if logg != nil {
					ctx = logg.WithOperatorID(ctx, operatorID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
