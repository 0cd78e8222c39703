package database

type PortalRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByUsername(username string) (User, error)
	GetAccountByEmail(email string) (User, error)
	CreateProduct(params CreateProductParams) (Product, error)
	UpdateProduct(params UpdateProductParams) (Product, error)
	DeleteProduct(productId int) error
	GetProductById(productId int) (Product, error)
	ListProducts() ([]Product, error)
}
