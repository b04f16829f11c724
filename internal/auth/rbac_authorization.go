package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/rbac"
	"github.com/frahmantamala/crm-access/internal/transport"
)

// RBACAuthorization guards routes with module/action checks against the
// caller's role snapshot.
type RBACAuthorization struct {
	*transport.BaseHandler
	evaluator *rbac.Evaluator
}

func NewRBACAuthorization(evaluator *rbac.Evaluator, logger *slog.Logger) *RBACAuthorization {
	if evaluator == nil {
		evaluator = rbac.NewEvaluator()
	}
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		evaluator:   evaluator,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, module string, actions ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			ra.Logger.Warn("authorization check failed: user not found in context")
			ra.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !ra.evaluator.CanAny(user.Role, module, actions...) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.ID,
				"role", user.Role.Name,
				"module", module,
				"actions", actions)
			ra.WriteAppError(w, internal.ErrPermissionDenied)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// RequirePermission lets the request through when the role may perform any of
// actions on module.
func (ra *RBACAuthorization) RequirePermission(module string, actions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, module, actions...)
	}
}
