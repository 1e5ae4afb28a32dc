package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Bashy-Codes/wf-server/internal/apperr"
)

func Test_failErr_MapsAppErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"unauthenticated", apperr.Unauthenticated("user identity required"), http.StatusUnauthorized, ErrCodeUnauthorized, ""},
		{"validation", apperr.Validation("title", "title is required"), http.StatusBadRequest, ErrCodeBadRequest, "title"},
		{"forbidden", apperr.NotAuthorized("users are not friends"), http.StatusForbidden, ErrCodeForbidden, ""},
		{"not found", apperr.NotFound("letter not found"), http.StatusNotFound, ErrCodeNotFound, ""},
		{"conflict", apperr.InvalidState("letter not yet delivered"), http.StatusConflict, ErrCodeConflict, ""},
		{"opaque error", errors.New("pq: connection reset"), http.StatusInternalServerError, ErrCodeInternal, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { failErr(c, tc.err) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d, want %d", w.Code, tc.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json: %v", err)
			}
			if resp.Code != tc.wantCode || resp.Field != tc.wantField {
				t.Fatalf("unexpected body: %+v", resp)
			}
		})
	}
}

func Test_failErr_NeverLeaksInternals(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		failErr(c, errors.New("dial tcp 10.0.0.3:5432: i/o timeout"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", resp.Message)
	}
}

func Test_fail_EchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-9")
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(w, req)

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-9" || resp.Code != ErrCodeNotFound || resp.Message != "nope" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}
