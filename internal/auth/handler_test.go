package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/crm-access/internal/rbac"
)

var _ = ginkgo.Describe("Handler", func() {
	var (
		handler  *Handler
		service  *Service
		mockRepo *mockUserRepository
		guard    *RBACAuthorization
	)

	login := func(email string) AuthTokens {
		tokens, err := service.Authenticate(context.Background(), LoginDTO{Email: email, Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return tokens
	}

	ginkgo.BeforeEach(func() {
		mockRepo = newMockUserRepository()
		tokens := NewJWTTokenGenerator("a", "r", time.Minute, time.Hour)
		service = NewService(mockRepo, tokens, bcrypt.MinCost, discardLogger())
		handler = NewHandler(service)
		handler.Logger = discardLogger()
		guard = NewRBACAuthorization(rbac.NewEvaluator(), discardLogger())
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should return tokens on success", func() {
			body, _ := json.Marshal(LoginDTO{Email: "employee@example.com", Password: "correct_password"})
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
			rr := httptest.NewRecorder()

			handler.Login(rr, req)

			gomega.Expect(rr.Code).To(gomega.Equal(http.StatusOK))
			var tokens AuthTokens
			gomega.Expect(json.Unmarshal(rr.Body.Bytes(), &tokens)).To(gomega.Succeed())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should return 401 with an error envelope on bad credentials", func() {
			body, _ := json.Marshal(LoginDTO{Email: "employee@example.com", Password: "nope"})
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
			rr := httptest.NewRecorder()

			handler.Login(rr, req)

			gomega.Expect(rr.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(rr.Body.String()).To(gomega.ContainSubstring(`"code":"INVALID_CREDENTIALS"`))
		})

		ginkgo.It("should return 400 on malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString("{"))
			rr := httptest.NewRecorder()

			handler.Login(rr, req)

			gomega.Expect(rr.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var seen *User

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = UserFromContext(r.Context())
			w.WriteHeader(http.StatusTeapot)
		})

		ginkgo.BeforeEach(func() {
			seen = nil
		})

		ginkgo.It("should attach the user with their role", func() {
			tokens := login("manager@example.com")
			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rr := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rr, req)

			gomega.Expect(rr.Code).To(gomega.Equal(http.StatusTeapot))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.Role.Kind()).To(gomega.Equal(rbac.RoleManager))
		})

		ginkgo.It("should reject a missing token", func() {
			rr := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tasks", nil))

			gomega.Expect(rr.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("should reject a deactivated user holding a valid token", func() {
			tokens := login("employee@example.com")
			delete(mockRepo.usersByID, 1)

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rr := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rr, req)

			gomega.Expect(rr.Code).To(gomega.Equal(http.StatusForbidden))
		})
	})

	ginkgo.Describe("RequirePermission", func() {
		serve := func(u *User) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/tasks", nil)
			if u != nil {
				req = req.WithContext(ContextWithUser(req.Context(), u))
			}
			rr := httptest.NewRecorder()
			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
			guard.RequirePermission(rbac.ModuleTasks, rbac.ActionCreate)(ok).ServeHTTP(rr, req)
			return rr
		}

		ginkgo.It("should pass roles holding the action", func() {
			gomega.Expect(serve(mockRepo.usersByID[3]).Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("should pass full-access roles", func() {
			gomega.Expect(serve(mockRepo.usersByID[2]).Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("should deny everyone else with 403", func() {
			rr := serve(mockRepo.usersByID[1])
			gomega.Expect(rr.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(rr.Body.String()).To(gomega.ContainSubstring("INSUFFICIENT_PERMISSIONS"))
		})

		ginkgo.It("should return 401 without a user", func() {
			gomega.Expect(serve(nil).Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
