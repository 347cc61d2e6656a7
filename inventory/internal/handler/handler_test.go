package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Astemirdum/book-inventory/inventory/internal/errs"
	"github.com/Astemirdum/book-inventory/inventory/internal/handler"
	service_mocks "github.com/Astemirdum/book-inventory/inventory/internal/handler/mocks"
	"github.com/Astemirdum/book-inventory/inventory/internal/model"
	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type request struct {
	method string
	target string
	body   string
}

type response struct {
	expectedCode int
	expectedBody string
}

type mockBehavior func(r *service_mocks.MockBookService)

type testCase struct {
	name         string
	mockBehavior mockBehavior
	request      request
	response     response
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func run(t *testing.T, tests []testCase) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockBookService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)
			e := h.NewRouter()

			var body io.Reader = http.NoBody
			if tt.request.body != "" {
				body = strings.NewReader(tt.request.body)
			}
			r := httptest.NewRequest(tt.request.method, tt.request.target, body)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func noCalls(*service_mocks.MockBookService) {}

func TestHandler_CreateBooks(t *testing.T) {
	t.Parallel()
	run(t, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBooks(gomock.Any(), []model.BookSpec{{Title: strPtr("Dune"), Author: strPtr("Herbert"), Quantity: intPtr(3)}}).
					Return([]int64{1}, nil)
			},
			request: request{
				method: http.MethodPost,
				target: "/books/",
				body:   `{"books":[{"title":"Dune","author":"Herbert","quantity":3}]}`,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Books added successfully","book_ids":[1]}`,
			},
		},
		{
			name: "ok. without trailing slash, explicit availability",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBooks(gomock.Any(), []model.BookSpec{
						{Title: strPtr("Dune"), Author: strPtr("Herbert"), Quantity: intPtr(3), Availability: boolPtr(false)},
						{Title: strPtr("Solaris"), Author: strPtr("Lem"), Quantity: intPtr(0)},
					}).
					Return([]int64{4, 5}, nil)
			},
			request: request{
				method: http.MethodPost,
				target: "/books",
				body:   `{"books":[{"title":"Dune","author":"Herbert","quantity":3,"availability":false},{"title":"Solaris","author":"Lem","quantity":0}]}`,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Books added successfully","book_ids":[4,5]}`,
			},
		},
		{
			name:         "err. empty batch",
			mockBehavior: noCalls,
			request: request{
				method: http.MethodPost,
				target: "/books/",
				body:   `{"books":[]}`,
			},
			response: response{expectedCode: http.StatusUnprocessableEntity},
		},
		{
			name: "ok. empty title and negative quantity are accepted",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBooks(gomock.Any(), []model.BookSpec{
						{Title: strPtr(""), Author: strPtr("Herbert"), Quantity: intPtr(3)},
						{Title: strPtr("Dune"), Author: strPtr(""), Quantity: intPtr(-1)},
					}).
					Return([]int64{6, 7}, nil)
			},
			request: request{
				method: http.MethodPost,
				target: "/books/",
				body:   `{"books":[{"title":"","author":"Herbert","quantity":3},{"title":"Dune","author":"","quantity":-1}]}`,
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Books added successfully","book_ids":[6,7]}`,
			},
		},
		{
			name:         "err. title missing",
			mockBehavior: noCalls,
			request: request{
				method: http.MethodPost,
				target: "/books/",
				body:   `{"books":[{"author":"Herbert","quantity":3}]}`,
			},
			response: response{expectedCode: http.StatusUnprocessableEntity},
		},
		{
			name:         "err. quantity missing",
			mockBehavior: noCalls,
			request: request{
				method: http.MethodPost,
				target: "/books/",
				body:   `{"books":[{"title":"Dune","author":"Herbert"}]}`,
			},
			response: response{expectedCode: http.StatusUnprocessableEntity},
		},
		{
			name:         "err. malformed json",
			mockBehavior: noCalls,
			request: request{
				method: http.MethodPost,
				target: "/books/",
				body:   `{"books":[{`,
			},
			response: response{
				expectedCode: http.StatusUnprocessableEntity,
				expectedBody: `{"detail":"unexpected EOF"}`,
			},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().
					CreateBooks(gomock.Any(), gomock.Any()).
					Return(nil, errors.Wrap(errs.ErrPersistence, "CreateBooks"))
			},
			request: request{
				method: http.MethodPost,
				target: "/books/",
				body:   `{"books":[{"title":"Dune","author":"Herbert","quantity":3}]}`,
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"detail":"Error saving books"}`,
			},
		},
	})
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	run(t, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().ListBooks(context.Background()).Return([]model.Book{
					{ID: 1, Title: "Dune", Author: "Herbert", Quantity: 3, Availability: true},
					{ID: 2, Title: "Solaris", Author: "Lem", Quantity: 0, Availability: false},
				}, nil)
			},
			request: request{method: http.MethodGet, target: "/books"},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `[{"id":1,"title":"Dune","author":"Herbert","quantity":3,"availability":true},{"id":2,"title":"Solaris","author":"Lem","quantity":0,"availability":false}]`,
			},
		},
		{
			name: "err. empty table",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().ListBooks(context.Background()).Return(nil, errs.ErrNotFound)
			},
			request: request{method: http.MethodGet, target: "/books"},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"detail":"No books found"}`,
			},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().ListBooks(context.Background()).Return(nil, errs.ErrPersistence)
			},
			request: request{method: http.MethodGet, target: "/books"},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"detail":"Error fetching books"}`,
			},
		},
	})
}

func TestHandler_GetBook(t *testing.T) {
	t.Parallel()
	run(t, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().GetBook(context.Background(), int64(1)).
					Return(model.Book{ID: 1, Title: "Dune", Author: "Herbert", Quantity: 3, Availability: true}, nil)
			},
			request: request{method: http.MethodGet, target: "/books/1"},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":1,"title":"Dune","author":"Herbert","quantity":3,"availability":true}`,
			},
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().GetBook(context.Background(), int64(42)).Return(model.Book{}, errs.ErrNotFound)
			},
			request: request{method: http.MethodGet, target: "/books/42"},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"detail":"Book not found"}`,
			},
		},
		{
			name:         "err. id is not an integer",
			mockBehavior: noCalls,
			request:      request{method: http.MethodGet, target: "/books/abc"},
			response: response{
				expectedCode: http.StatusUnprocessableEntity,
				expectedBody: `{"detail":"book id must be an integer"}`,
			},
		},
	})
}

func TestHandler_UpdateBook(t *testing.T) {
	t.Parallel()
	run(t, []testCase{
		{
			name: "ok. quantity only",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().UpdateBook(context.Background(), int64(1), model.UpdateBookRequest{Quantity: intPtr(9)}).Return(nil)
			},
			request: request{method: http.MethodPut, target: "/books/1", body: `{"quantity":9}`},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Book updated successfully","book_id":1}`,
			},
		},
		{
			name: "ok. title and availability",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().UpdateBook(context.Background(), int64(3),
					model.UpdateBookRequest{Title: strPtr("Eden"), Availability: boolPtr(false)}).Return(nil)
			},
			request: request{method: http.MethodPut, target: "/books/3", body: `{"title":"Eden","availability":false}`},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Book updated successfully","book_id":3}`,
			},
		},
		{
			name: "ok. empty body",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().UpdateBook(context.Background(), int64(1), model.UpdateBookRequest{}).Return(nil)
			},
			request: request{method: http.MethodPut, target: "/books/1", body: `{}`},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Book updated successfully","book_id":1}`,
			},
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().UpdateBook(context.Background(), int64(7), gomock.Any()).Return(errs.ErrNotFound)
			},
			request: request{method: http.MethodPut, target: "/books/7", body: `{"quantity":1}`},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"detail":"Book not found"}`,
			},
		},
		{
			name: "ok. negative quantity",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().UpdateBook(context.Background(), int64(7), model.UpdateBookRequest{Quantity: intPtr(-1)}).Return(nil)
			},
			request: request{method: http.MethodPut, target: "/books/7", body: `{"quantity":-1}`},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Book updated successfully","book_id":7}`,
			},
		},
		{
			name:         "err. truncated body",
			mockBehavior: noCalls,
			request:      request{method: http.MethodPut, target: "/books/7", body: `{"quantity":`},
			response: response{
				expectedCode: http.StatusUnprocessableEntity,
				expectedBody: `{"detail":"unexpected EOF"}`,
			},
		},
	})
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	run(t, []testCase{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().DeleteBook(context.Background(), int64(1)).Return(nil)
			},
			request: request{method: http.MethodDelete, target: "/books/1"},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"detail":"book deleted successfully"}`,
			},
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().DeleteBook(context.Background(), int64(1)).Return(errs.ErrNotFound)
			},
			request: request{method: http.MethodDelete, target: "/books/1"},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"detail":"Book not found"}`,
			},
		},
	})
}

func TestHandler_DeleteBooks(t *testing.T) {
	t.Parallel()
	run(t, []testCase{
		{
			name: "ok. echoes requested ids",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().DeleteBooks(context.Background(), []int64{1, 2, 404}).Return([]int64{1, 2, 404}, nil)
			},
			request: request{method: http.MethodDelete, target: "/books", body: `[1,2,404]`},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"message":"Books deleted successfully","deleted_ids":[1,2,404]}`,
			},
		},
		{
			name: "err. none matched",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().DeleteBooks(context.Background(), []int64{8, 9}).Return(nil, errs.ErrNotFound)
			},
			request: request{method: http.MethodDelete, target: "/books", body: `[8,9]`},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"detail":"No books found with the given IDs"}`,
			},
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().DeleteBooks(context.Background(), []int64{1}).Return(nil, errs.ErrPersistence)
			},
			request: request{method: http.MethodDelete, target: "/books", body: `[1]`},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"detail":"Error deleting books"}`,
			},
		},
		{
			name:         "err. no body",
			mockBehavior: noCalls,
			request:      request{method: http.MethodDelete, target: "/books"},
			response: response{
				expectedCode: http.StatusUnprocessableEntity,
				expectedBody: `{"detail":"a list of book ids is required"}`,
			},
		},
		{
			name:         "err. not a list",
			mockBehavior: noCalls,
			request:      request{method: http.MethodDelete, target: "/books", body: `{"ids":[1]}`},
			response:     response{expectedCode: http.StatusUnprocessableEntity},
		},
	})
}

func TestHandler_Manage(t *testing.T) {
	t.Parallel()
	run(t, []testCase{
		{
			name:         "health",
			mockBehavior: noCalls,
			request:      request{method: http.MethodGet, target: "/manage/health"},
			response:     response{expectedCode: http.StatusOK, expectedBody: "OK"},
		},
		{
			name: "ready",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().Ping(gomock.Any()).Return(nil)
			},
			request:  request{method: http.MethodGet, target: "/manage/ready"},
			response: response{expectedCode: http.StatusOK, expectedBody: "OK"},
		},
		{
			name: "not ready",
			mockBehavior: func(r *service_mocks.MockBookService) {
				r.EXPECT().Ping(gomock.Any()).Return(errors.New("dial tcp: connection refused"))
			},
			request: request{method: http.MethodGet, target: "/manage/ready"},
			response: response{
				expectedCode: http.StatusServiceUnavailable,
				expectedBody: `{"detail":"database is unreachable"}`,
			},
		},
		{
			name:         "unknown route",
			mockBehavior: noCalls,
			request:      request{method: http.MethodGet, target: "/authors"},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"detail":"Not Found"}`,
			},
		},
	})
}
