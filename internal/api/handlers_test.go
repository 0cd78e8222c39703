package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nlopez/go-prodportal/internal/auth"
	"github.com/nlopez/go-prodportal/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func adminToken(t *testing.T, app *PortalApp) string {
	token, err := app.auth.IssueToken(auth.Principal{Id: 1, Username: "root", Role: "admin"})
	require.NoError(t, err, "failed to issue admin token")
	return token
}

func Test_createAccount(t *testing.T) {
	now := time.Now().UTC()

	tt := []struct {
		name           string
		body           string
		setupMock      func(db *database.MockPortalRepository)
		expectedStatus int
	}{
		{
			name: "successful registration",
			body: `{"username":"alice","email":"alice@example.com","password":"hunter22"}`,
			setupMock: func(db *database.MockPortalRepository) {
				db.On("GetAccountByUsername", "alice").Return(database.User{}, sql.ErrNoRows)
				db.On("GetAccountByEmail", "alice@example.com").Return(database.User{}, sql.ErrNoRows)
				db.On("CreateAccount", mock.MatchedBy(func(p database.CreateAccountParams) bool {
					return p.Username == "alice" && p.Email == "alice@example.com" &&
						p.Role == "member" && p.PasswordHash != "hunter22"
				})).Return(database.User{
					Id:        1,
					Username:  "alice",
					Email:     "alice@example.com",
					Role:      "member",
					CreatedAt: now,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid json",
			body:           `{"username":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing fields",
			body:           `{"username":"alice"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate username",
			body: `{"username":"alice","email":"alice@example.com","password":"hunter22"}`,
			setupMock: func(db *database.MockPortalRepository) {
				db.On("GetAccountByUsername", "alice").Return(database.User{Id: 1, Username: "alice"}, nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "database error",
			body: `{"username":"alice","email":"alice@example.com","password":"hunter22"}`,
			setupMock: func(db *database.MockPortalRepository) {
				db.On("GetAccountByUsername", "alice").Return(database.User{}, sql.ErrNoRows)
				db.On("GetAccountByEmail", "alice@example.com").Return(database.User{}, sql.ErrNoRows)
				db.On("CreateAccount", mock.Anything).Return(database.User{}, fmt.Errorf("insert failed"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockPortalRepository{}
			defer db.AssertExpectations(t)
			if tc.setupMock != nil {
				tc.setupMock(db)
			}

			app, _ := newTestPortalApp(t, db)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			app.createAccount(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code, "unexpected status code")

			if tc.expectedStatus == http.StatusCreated {
				var resp AuthResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.NotEmpty(t, resp.Token, "expected a session token")
				assert.Equal(t, "alice", resp.User.Username)
				assert.Equal(t, "member", resp.User.Role, "expected self-registration to default to member")

				principal, err := app.auth.Verify(resp.Token)
				require.NoError(t, err, "expected issued token to verify")
				assert.Equal(t, "alice", principal.Username)
			}
		})
	}
}

func Test_login(t *testing.T) {
	pwdHash, err := hashPassword("hunter22")
	require.NoError(t, err, "failed to hash password")

	tt := []struct {
		name           string
		body           string
		setupMock      func(db *database.MockPortalRepository)
		expectedStatus int
	}{
		{
			name: "successful login",
			body: `{"username":"alice","password":"hunter22"}`,
			setupMock: func(db *database.MockPortalRepository) {
				db.On("GetAccountByUsername", "alice").Return(database.User{
					Id:           1,
					Username:     "alice",
					Email:        "alice@example.com",
					PasswordHash: pwdHash,
					Role:         "member",
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid json",
			body:           `{"username":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing fields",
			body:           `{"username":"alice"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown user",
			body: `{"username":"mallory","password":"hunter22"}`,
			setupMock: func(db *database.MockPortalRepository) {
				db.On("GetAccountByUsername", "mallory").Return(database.User{}, sql.ErrNoRows)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong password",
			body: `{"username":"alice","password":"wrong"}`,
			setupMock: func(db *database.MockPortalRepository) {
				db.On("GetAccountByUsername", "alice").Return(database.User{
					Id:           1,
					Username:     "alice",
					PasswordHash: pwdHash,
					Role:         "member",
				}, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockPortalRepository{}
			defer db.AssertExpectations(t)
			if tc.setupMock != nil {
				tc.setupMock(db)
			}

			app, _ := newTestPortalApp(t, db)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			app.login(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code, "unexpected status code")

			if tc.expectedStatus == http.StatusOK {
				var resp AuthResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.NotEmpty(t, resp.Token, "expected a session token")

				principal, err := app.auth.Verify(resp.Token)
				require.NoError(t, err, "expected issued token to verify")
				assert.Equal(t, 1, principal.Id)
				assert.Equal(t, "member", principal.Role)
			}
		})
	}
}

func Test_listProducts(t *testing.T) {
	db := &database.MockPortalRepository{}
	defer db.AssertExpectations(t)
	db.On("ListProducts").Return([]database.Product{
		{Id: 2, Name: "keyboard", Price: 49.99, CreatedBy: 1, CreatedByUsername: "root"},
		{Id: 1, Name: "mouse", Price: 19.99, CreatedBy: 1, CreatedByUsername: "root"},
	}, nil)

	app, _ := newTestPortalApp(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rr := httptest.NewRecorder()
	app.mux.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var products []map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&products))
	require.Len(t, products, 2, "expected both products")
	assert.Equal(t, "keyboard", products[0]["name"])
	assert.Equal(t, "root", products[0]["created_by"].(map[string]any)["username"])
}

func Test_getProduct(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		defer db.AssertExpectations(t)
		db.On("GetProductById", 7).Return(database.Product{
			Id: 7, Name: "keyboard", Price: 49.99, Stock: 3, Category: "peripherals",
			CreatedBy: 1, CreatedByUsername: "root",
		}, nil)

		app, _ := newTestPortalApp(t, db)

		req := httptest.NewRequest(http.MethodGet, "/api/products/7", nil)
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var product map[string]any
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&product))
		assert.Equal(t, "keyboard", product["name"])
	})

	t.Run("not found", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		defer db.AssertExpectations(t)
		db.On("GetProductById", 404).Return(database.Product{}, sql.ErrNoRows)

		app, _ := newTestPortalApp(t, db)

		req := httptest.NewRequest(http.MethodGet, "/api/products/404", nil)
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		app, _ := newTestPortalApp(t, &database.MockPortalRepository{})

		req := httptest.NewRequest(http.MethodGet, "/api/products/abc", nil)
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_createProduct(t *testing.T) {
	t.Run("admin creates product", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		defer db.AssertExpectations(t)
		db.On("CreateProduct", database.CreateProductParams{
			Name:        "keyboard",
			Price:       49.99,
			Description: "mechanical",
			Stock:       10,
			Category:    "peripherals",
			CreatedBy:   1,
		}).Return(database.Product{
			Id: 1, Name: "keyboard", Price: 49.99, Description: "mechanical",
			Stock: 10, Category: "peripherals", CreatedBy: 1,
		}, nil)

		app, _ := newTestPortalApp(t, db)

		body := `{"name":"keyboard","price":49.99,"description":"mechanical","stock":10,"category":"peripherals"}`
		req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+adminToken(t, app))
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var product map[string]any
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&product))
		assert.Equal(t, "root", product["created_by"].(map[string]any)["username"],
			"expected creator to be filled from the principal")
	})

	t.Run("member is rejected", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		defer db.AssertExpectations(t)

		app, _ := newTestPortalApp(t, db)
		token, err := app.auth.IssueToken(auth.Principal{Id: 2, Username: "alice", Role: "member"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"keyboard"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code, "expected non-admin create to be forbidden")
	})

	t.Run("anonymous is rejected", func(t *testing.T) {
		app, _ := newTestPortalApp(t, &database.MockPortalRepository{})

		req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"keyboard"}`))
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code, "expected anonymous create to be unauthorized")
	})

	t.Run("missing name", func(t *testing.T) {
		app, _ := newTestPortalApp(t, &database.MockPortalRepository{})

		req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"price":1}`))
		req.Header.Set("Authorization", "Bearer "+adminToken(t, app))
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_updateProduct(t *testing.T) {
	t.Run("successful update", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		defer db.AssertExpectations(t)
		db.On("UpdateProduct", database.UpdateProductParams{
			ProductId: 7,
			Name:      "keyboard",
			Price:     39.99,
		}).Return(database.Product{Id: 7, Name: "keyboard", Price: 39.99, CreatedBy: 1, CreatedByUsername: "root"}, nil)

		app, _ := newTestPortalApp(t, db)

		req := httptest.NewRequest(http.MethodPut, "/api/products/7", strings.NewReader(`{"name":"keyboard","price":39.99}`))
		req.Header.Set("Authorization", "Bearer "+adminToken(t, app))
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		defer db.AssertExpectations(t)
		db.On("UpdateProduct", mock.Anything).Return(database.Product{}, sql.ErrNoRows)

		app, _ := newTestPortalApp(t, db)

		req := httptest.NewRequest(http.MethodPut, "/api/products/404", strings.NewReader(`{"name":"keyboard"}`))
		req.Header.Set("Authorization", "Bearer "+adminToken(t, app))
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func Test_deleteProduct(t *testing.T) {
	t.Run("successful delete", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		defer db.AssertExpectations(t)
		db.On("GetProductById", 7).Return(database.Product{Id: 7, Name: "keyboard"}, nil)
		db.On("DeleteProduct", 7).Return(nil)

		app, _ := newTestPortalApp(t, db)

		req := httptest.NewRequest(http.MethodDelete, "/api/products/7", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken(t, app))
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		db := &database.MockPortalRepository{}
		defer db.AssertExpectations(t)
		db.On("GetProductById", 404).Return(database.Product{}, sql.ErrNoRows)

		app, _ := newTestPortalApp(t, db)

		req := httptest.NewRequest(http.MethodDelete, "/api/products/404", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken(t, app))
		rr := httptest.NewRecorder()
		app.mux.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
