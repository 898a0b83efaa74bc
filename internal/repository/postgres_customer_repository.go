package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kertas/internal/domain"
)

// PostgresCustomerRepository implements CustomerRepository using PostgreSQL
type PostgresCustomerRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCustomerRepository creates a new PostgreSQL customer repository
func NewPostgresCustomerRepository(db *pgxpool.Pool) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{
		db: db,
	}
}

// CreateCustomer saves a new customer to the database
func (r *PostgresCustomerRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (id, name, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, customer.ID, customer.Name, customer.Phone, customer.Address).Scan(
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert customer: %w", err)
	}

	return customer, nil
}

// GetCustomerByID retrieves a customer by ID
func (r *PostgresCustomerRepository) GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.QueryRow(ctx, `
		SELECT id, name, phone, address, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, customerID).Scan(
		&customer.ID, &customer.Name, &customer.Phone, &customer.Address,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}

// ListCustomers retrieves customers with optional name filter and pagination
func (r *PostgresCustomerRepository) ListCustomers(ctx context.Context, filter domain.CustomerFilter) (*domain.PaginatedCustomers, error) {
	result := &domain.PaginatedCustomers{
		Data:       []domain.Customer{},
		Pagination: domain.Pagination{},
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	base := sq.Select().From("customers").PlaceholderFormat(sq.Dollar)
	if filter.Name != "" {
		base = base.Where(sq.ILike{"name": "%" + filter.Name + "%"})
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalItems int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalItems); err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	result.Pagination.TotalItems = totalItems
	result.Pagination.Limit = filter.Limit
	result.Pagination.CurrentPage = filter.Page
	result.Pagination.TotalPages = int(math.Ceil(float64(totalItems) / float64(filter.Limit)))

	if totalItems == 0 {
		return result, nil
	}

	offset := (filter.Page - 1) * filter.Limit
	listSQL, listArgs, err := base.
		Columns("id", "name", "phone", "address", "created_at", "updated_at").
		OrderBy("name").
		Limit(uint64(filter.Limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(
			&customer.ID, &customer.Name, &customer.Phone, &customer.Address,
			&customer.CreatedAt, &customer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		result.Data = append(result.Data, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return result, nil
}

// UpdateCustomer updates an existing customer
func (r *PostgresCustomerRepository) UpdateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE customers
		SET name = $1, phone = $2, address = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, customer.Name, customer.Phone, customer.Address, customer.ID).Scan(&customer.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	return customer, nil
}

// DeleteCustomer removes a customer that no invoice rows reference.
// Soft-deleted invoices still hold the foreign key, so they block the
// delete as well.
func (r *PostgresCustomerRepository) DeleteCustomer(ctx context.Context, customerID string) error {
	var invoiceCount int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM invoices WHERE customer_id = $1
	`, customerID).Scan(&invoiceCount)
	if err != nil {
		return fmt.Errorf("failed to count customer invoices: %w", err)
	}
	if invoiceCount > 0 {
		return domain.ErrCustomerHasInvoices
	}

	commandTag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
