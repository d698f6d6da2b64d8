package problemdetails

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{
			name:       "not found",
			err:        errors.NotFound("LINK_NOT_FOUND", "link not found"),
			wantStatus: http.StatusNotFound,
			wantType:   "https://linkshrink.dev/problems/not-found",
			wantDetail: "link not found",
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("resolve: %w", errors.NotFound("LINK_NOT_FOUND", "link not found")),
			wantStatus: http.StatusNotFound,
			wantType:   "https://linkshrink.dev/problems/not-found",
			wantDetail: "link not found",
		},
		{
			name:       "bad request",
			err:        errors.BadRequest("INVALID", "bad input"),
			wantStatus: http.StatusBadRequest,
			wantType:   "https://linkshrink.dev/problems/bad-request",
			wantDetail: "bad input",
		},
		{
			name:       "plain error hides the cause",
			err:        stderrors.New("dial tcp 10.0.0.3:6379: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "https://linkshrink.dev/problems/internal-error",
			wantDetail: "internal server error",
		},
		{
			name:       "unavailable hides the cause",
			err:        errors.ServiceUnavailable("UPSTREAM", "redis down"),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   "https://linkshrink.dev/problems/service-unavailable",
			wantDetail: "service temporarily unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd := FromError(tt.err)

			assert.Equal(t, tt.wantStatus, pd.Status)
			assert.Equal(t, tt.wantType, pd.Type)
			assert.Equal(t, tt.wantDetail, pd.Detail)
			assert.Equal(t, http.StatusText(tt.wantStatus), pd.Title)
		})
	}
}

func TestErrorEncoder(t *testing.T) {
	rec := httptest.NewRecorder()

	ErrorEncoder(rec, httptest.NewRequest(http.MethodGet, "/zzzz999", nil), errors.NotFound("LINK_NOT_FOUND", "link not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	var got ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "link not found", got.Detail)
}
