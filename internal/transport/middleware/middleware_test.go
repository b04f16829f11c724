package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/frahmantamala/crm-access/internal"
)

var _ = ginkgo.Describe("RequestID", func() {
	ginkgo.It("propagates an inbound id to chi and the response", func() {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = chiMiddleware.GetReqID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		gomega.Expect(seen).To(gomega.Equal("req-123"))
		gomega.Expect(rr.Header().Get("X-Request-ID")).To(gomega.Equal("req-123"))
	})

	ginkgo.It("mints an id when none is sent", func() {
		h := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		gomega.Expect(rr.Header().Get("X-Request-ID")).To(gomega.HaveLen(36))
	})
})

var _ = ginkgo.Describe("RecoveryMiddleware", func() {
	ginkgo.It("answers 500 with the error envelope and hides the panic value", func() {
		h := RecoveryMiddleware(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("db password is hunter2")
		}))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		gomega.Expect(rr.Code).To(gomega.Equal(http.StatusInternalServerError))
		gomega.Expect(rr.Body.String()).NotTo(gomega.ContainSubstring("hunter2"))

		var resp internal.Response
		gomega.Expect(json.Unmarshal(rr.Body.Bytes(), &resp)).To(gomega.Succeed())
		gomega.Expect(resp.Error.Type).To(gomega.Equal(internal.ErrorTypeInternal))
	})
})

var _ = ginkgo.Describe("LoggingMiddleware", func() {
	ginkgo.It("masks credentials and leaves the body readable downstream", func() {
		var logs bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&logs, nil))

		var downstream []byte
		h := LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			downstream, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"access_token":"abc.def.ghi"}`))
		}))

		body := `{"email":"a@example.com","password":"s3cret"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		h.ServeHTTP(httptest.NewRecorder(), req)

		gomega.Expect(string(downstream)).To(gomega.Equal(body))
		gomega.Expect(logs.String()).NotTo(gomega.ContainSubstring("s3cret"))
		gomega.Expect(logs.String()).NotTo(gomega.ContainSubstring("abc.def.ghi"))
		gomega.Expect(logs.String()).To(gomega.ContainSubstring(`"status_code":401`))
	})

	ginkgo.It("filters nested JSON fields", func() {
		out := filterSensitiveBody([]byte(`{"user":{"name":"Ann","refresh_token":"x"},"items":[{"secret":"y"}]}`))

		gomega.Expect(out).To(gomega.MatchJSON(`{"user":{"name":"Ann","refresh_token":"[FILTERED]"},"items":[{"secret":"[FILTERED]"}]}`))
	})
})

var _ = ginkgo.Describe("CORS", func() {
	ginkgo.It("answers preflight requests for allowed origins", func() {
		h := CORS([]string{"https://crm.example.com"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/tasks", nil)
		req.Header.Set("Origin", "https://crm.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		gomega.Expect(rr.Header().Get("Access-Control-Allow-Origin")).To(gomega.Equal("https://crm.example.com"))
	})

	ginkgo.It("does not echo unknown origins", func() {
		h := CORS([]string{"https://crm.example.com"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		gomega.Expect(rr.Header().Get("Access-Control-Allow-Origin")).To(gomega.BeEmpty())
	})
})

var _ = ginkgo.Describe("HTTPMetrics", func() {
	ginkgo.It("counts requests by route pattern", func() {
		reg := prometheus.NewRegistry()
		m := NewHTTPMetrics(reg)

		r := chi.NewRouter()
		r.Use(m.Middleware)
		r.Get("/tasks/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/1", nil))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/2", nil))

		var metric dto.Metric
		gomega.Expect(m.requests.WithLabelValues("/tasks/{id}", http.MethodGet, "404").Write(&metric)).To(gomega.Succeed())
		gomega.Expect(metric.GetCounter().GetValue()).To(gomega.Equal(2.0))
	})
})
