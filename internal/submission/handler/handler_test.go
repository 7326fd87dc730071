package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/middleware"
	"github.com/EOEPCA/open-science-catalog-backend/internal/platform"
	"github.com/EOEPCA/open-science-catalog-backend/internal/submission/model"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) CreateItem(ctx context.Context, submitter model.Submitter, itemID, itemType string, content []byte) (model.CreatedResponse, error) {
	args := m.Called(ctx, submitter, itemID, itemType, content)
	return args.Get(0).(model.CreatedResponse), args.Error(1)
}

func (m *mockService) UpdateItem(ctx context.Context, submitter model.Submitter, itemID, itemType string, content []byte) (model.CreatedResponse, error) {
	args := m.Called(ctx, submitter, itemID, itemType, content)
	return args.Get(0).(model.CreatedResponse), args.Error(1)
}

func (m *mockService) DeleteItem(ctx context.Context, submitter model.Submitter, itemID, itemType string) (model.CreatedResponse, error) {
	args := m.Called(ctx, submitter, itemID, itemType)
	return args.Get(0).(model.CreatedResponse), args.Error(1)
}

func (m *mockService) ListItems(ctx context.Context, user string, filter model.Filter) ([]string, error) {
	args := m.Called(ctx, user, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockService) GetItem(ctx context.Context, user, itemID string) ([]byte, error) {
	args := m.Called(ctx, user, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

var _ ItemService = (*mockService)(nil)

func setupRouter(svc ItemService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewItemHandler(svc, zap.NewNop().Sugar())
	r := gin.New()
	r.Use(middleware.AuthContext())
	r.GET("/items", h.List)
	r.POST("/items/:itemID", h.Create)
	r.GET("/items/:itemID", h.Get)
	r.PUT("/items/:itemID", h.Update)
	r.DELETE("/items/:itemID", h.Delete)
	return r
}

func doRequest(router *gin.Engine, method, target, user string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if user != "" {
		req.Header.Set(middleware.UserHeader, user)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestItemHandler_Create(t *testing.T) {
	t.Run("submits the body and reports the pull request", func(t *testing.T) {
		mockSvc := new(mockService)
		mockSvc.On("CreateItem", mock.Anything, model.Submitter{User: "bob"}, "x.json", "item", []byte("{}")).
			Return(model.CreatedResponse{URL: "https://github.com/osc/catalog/pull/7"}, nil)
		router := setupRouter(mockSvc)

		w := doRequest(router, http.MethodPost, "/items/x.json?item_type=item", "bob", []byte("{}"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"url":"https://github.com/osc/catalog/pull/7"}`, w.Body.String())
		mockSvc.AssertExpectations(t)
	})

	t.Run("passes the data owner flag through", func(t *testing.T) {
		mockSvc := new(mockService)
		mockSvc.On("CreateItem", mock.Anything, model.Submitter{User: "bob", DataOwner: true},
			"x.json", "", []byte("{}")).
			Return(model.CreatedResponse{URL: "u"}, nil)
		router := setupRouter(mockSvc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/items/x.json", bytes.NewReader([]byte("{}")))
		req.Header.Set(middleware.UserHeader, "bob")
		req.Header.Set(middleware.DataOwnerHeader, "true")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestItemHandler_Update(t *testing.T) {
	mockSvc := new(mockService)
	mockSvc.On("UpdateItem", mock.Anything, model.Submitter{User: "alice"}, "a.json", "", []byte(`{"v":2}`)).
		Return(model.CreatedResponse{URL: "u"}, nil)
	router := setupRouter(mockSvc)

	w := doRequest(router, http.MethodPut, "/items/a.json", "alice", []byte(`{"v":2}`))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_Delete(t *testing.T) {
	mockSvc := new(mockService)
	mockSvc.On("DeleteItem", mock.Anything, model.Submitter{User: "alice"}, "a.json", "").
		Return(model.CreatedResponse{URL: "u"}, nil)
	router := setupRouter(mockSvc)

	w := doRequest(router, http.MethodDelete, "/items/a.json", "alice", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestItemHandler_List(t *testing.T) {
	t.Run("lists confirmed items by default", func(t *testing.T) {
		mockSvc := new(mockService)
		mockSvc.On("ListItems", mock.Anything, "alice", model.FilterConfirmed).
			Return([]string{"a.json", "b.json"}, nil)
		router := setupRouter(mockSvc)

		w := doRequest(router, http.MethodGet, "/items", "alice", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"items":["a.json","b.json"]}`, w.Body.String())
	})

	t.Run("lists pending items on request", func(t *testing.T) {
		mockSvc := new(mockService)
		mockSvc.On("ListItems", mock.Anything, "alice", model.FilterPending).
			Return([]string{"c.json"}, nil)
		router := setupRouter(mockSvc)

		w := doRequest(router, http.MethodGet, "/items?filter=pending", "alice", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"items":["c.json"]}`, w.Body.String())
	})

	t.Run("rejects unknown filters before calling the service", func(t *testing.T) {
		mockSvc := new(mockService)
		router := setupRouter(mockSvc)

		w := doRequest(router, http.MethodGet, "/items?filter=reviewed", "alice", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
		mockSvc.AssertNotCalled(t, "ListItems", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestItemHandler_Get(t *testing.T) {
	mockSvc := new(mockService)
	mockSvc.On("GetItem", mock.Anything, "alice", "a.json").Return([]byte(`{"id":"a"}`), nil)
	router := setupRouter(mockSvc)

	w := doRequest(router, http.MethodGet, "/items/a.json", "alice", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"id":"a"}`, w.Body.String())
}

func TestItemHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid item id",
			err:        model.ErrInvalidItemID,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "unknown user",
			err:        model.ErrInvalidUser,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHENTICATED",
		},
		{
			name:       "missing item",
			err:        model.ErrItemNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "optimistic concurrency loss",
			err:        platform.ErrConflict,
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "branch allocation exhausted",
			err:        model.ErrBranchAllocationExhausted,
			wantStatus: http.StatusConflict,
			wantCode:   "BRANCH_EXHAUSTED",
		},
		{
			name:       "platform unavailable",
			err:        &platform.TransientError{Op: "open pull request", Target: "b", Err: errors.New("eof")},
			wantStatus: http.StatusBadGateway,
			wantCode:   "PLATFORM_UNAVAILABLE",
		},
		{
			name:       "unexpected failure",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(mockService)
			mockSvc.On("DeleteItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(model.CreatedResponse{}, tt.err)
			router := setupRouter(mockSvc)

			w := doRequest(router, http.MethodDelete, "/items/a.json", "alice", nil)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}
