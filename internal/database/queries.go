package database

import (
	"time"
)

func (db *PgPortalRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, role, created_at) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING id, username, email, role, created_at",
		params.Username,
		params.Email,
		params.PasswordHash,
		params.Role,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.Role,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgPortalRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
	)

	return u, err
}

func (db *PgPortalRepository) GetAccountByUsername(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role FROM accounts "+
			"WHERE username = $1 LIMIT 1",
		username,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
	)

	return u, err
}

func (db *PgPortalRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, role FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
	)

	return u, err
}

func (db *PgPortalRepository) CreateProduct(params CreateProductParams) (Product, error) {
	res := db.conn.QueryRow(
		"INSERT INTO products (name, price, description, stock, category, created_by, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) "+
			"RETURNING id, name, price, description, stock, category, created_by, created_at, updated_at",
		params.Name,
		params.Price,
		params.Description,
		params.Stock,
		params.Category,
		params.CreatedBy,
		time.Now().UTC(),
	)

	var p Product
	err := res.Scan(
		&p.Id,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.Stock,
		&p.Category,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgPortalRepository) UpdateProduct(params UpdateProductParams) (Product, error) {
	res := db.conn.QueryRow(
		"UPDATE products SET name = $2, price = $3, description = $4, stock = $5, category = $6, updated_at = $7 "+
			"WHERE id = $1 "+
			"RETURNING id, name, price, description, stock, category, created_by, created_at, updated_at",
		params.ProductId,
		params.Name,
		params.Price,
		params.Description,
		params.Stock,
		params.Category,
		time.Now().UTC(),
	)

	var p Product
	err := res.Scan(
		&p.Id,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.Stock,
		&p.Category,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgPortalRepository) DeleteProduct(productId int) error {
	_, err := db.conn.Exec("DELETE FROM products WHERE id = $1", productId)
	return err
}

func (db *PgPortalRepository) GetProductById(productId int) (Product, error) {
	row := db.conn.QueryRow(
		"SELECT p.id, p.name, p.price, p.description, p.stock, p.category, "+
			"p.created_by, a.username, p.created_at, p.updated_at "+
			"FROM products p JOIN accounts a ON a.id = p.created_by "+
			"WHERE p.id = $1 LIMIT 1",
		productId,
	)

	var p Product
	err := row.Scan(
		&p.Id,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.Stock,
		&p.Category,
		&p.CreatedBy,
		&p.CreatedByUsername,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgPortalRepository) ListProducts() ([]Product, error) {
	rows, err := db.conn.Query(
		"SELECT p.id, p.name, p.price, p.description, p.stock, p.category, " +
			"p.created_by, a.username, p.created_at, p.updated_at " +
			"FROM products p JOIN accounts a ON a.id = p.created_by " +
			"ORDER BY p.created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.Id,
			&p.Name,
			&p.Price,
			&p.Description,
			&p.Stock,
			&p.Category,
			&p.CreatedBy,
			&p.CreatedByUsername,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}
