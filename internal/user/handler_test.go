package user_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm-access/internal/auth"
	"github.com/frahmantamala/crm-access/internal/rbac"
	"github.com/frahmantamala/crm-access/internal/user"
)

var _ = Describe("User Handler", func() {
	var (
		router chi.Router
		caller *auth.User
	)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if caller != nil {
			req = req.WithContext(auth.ContextWithUser(req.Context(), caller))
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	BeforeEach(func() {
		repo, dir := orgFixture()
		h := user.NewHandler(user.NewService(repo, dir, rbac.NewHierarchyResolver(dir), quietLogger()))
		h.Logger = quietLogger()

		router = chi.NewRouter()
		router.Get("/users/me", h.GetCurrentUser)
		router.Get("/users/{id}/reports", h.ListReports)

		caller = &auth.User{ID: 10, Role: rbac.Role{Name: "Manager"}}
	})

	It("returns the caller's profile", func() {
		rr := get("/users/me")

		Expect(rr.Code).To(Equal(http.StatusOK))
		var u user.User
		Expect(json.Unmarshal(rr.Body.Bytes(), &u)).To(Succeed())
		Expect(u.ID).To(Equal(int64(10)))
		Expect(u.Role).To(Equal("Manager"))
	})

	It("answers 401 without a caller", func() {
		caller = nil
		Expect(get("/users/me").Code).To(Equal(http.StatusUnauthorized))
	})

	It("lists reports inside the caller's hierarchy", func() {
		rr := get("/users/20/reports")

		Expect(rr.Code).To(Equal(http.StatusOK))
		var resp user.ReportsResponse
		Expect(json.Unmarshal(rr.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.ManagerID).To(Equal(int64(20)))
		Expect(resp.Reports).To(HaveLen(1))
	})

	It("answers 403 outside the caller's hierarchy", func() {
		Expect(get("/users/21/reports").Code).To(Equal(http.StatusForbidden))
	})

	It("answers 400 for a malformed id", func() {
		Expect(get("/users/x/reports").Code).To(Equal(http.StatusBadRequest))
	})
})
