package database

import (
	"github.com/stretchr/testify/mock"
)

type MockPortalRepository struct {
	mock.Mock
}

func (m *MockPortalRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockPortalRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockPortalRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockPortalRepository) GetAccountByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockPortalRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockPortalRepository) CreateProduct(params CreateProductParams) (Product, error) {
	args := m.Called(params)
	return args.Get(0).(Product), args.Error(1)
}
func (m *MockPortalRepository) UpdateProduct(params UpdateProductParams) (Product, error) {
	args := m.Called(params)
	return args.Get(0).(Product), args.Error(1)
}
func (m *MockPortalRepository) DeleteProduct(productId int) error {
	args := m.Called(productId)
	return args.Error(0)
}
func (m *MockPortalRepository) GetProductById(productId int) (Product, error) {
	args := m.Called(productId)
	return args.Get(0).(Product), args.Error(1)
}
func (m *MockPortalRepository) ListProducts() ([]Product, error) {
	args := m.Called()
	return args.Get(0).([]Product), args.Error(1)
}
