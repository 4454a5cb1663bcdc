package backend

import (
	"context"
	"net/http"

	"ticket-admin/models"
)

func (c *Client) ListOrders(ctx context.Context, sess *Session) ([]models.Order, error) {
	return list[models.Order](ctx, c, sess, "ListOrders", "orders/")
}

func (c *Client) DeleteOrder(ctx context.Context, sess *Session, id int64) error {
	return c.doJSON(ctx, sess, "DeleteOrder", http.MethodDelete, resourcePath("orders", id), nil, nil)
}

func (c *Client) ListCustomers(ctx context.Context, sess *Session) ([]models.Customer, error) {
	return list[models.Customer](ctx, c, sess, "ListCustomers", "customers/")
}

func (c *Client) DeleteCustomer(ctx context.Context, sess *Session, id int64) error {
	return c.doJSON(ctx, sess, "DeleteCustomer", http.MethodDelete, resourcePath("customers", id), nil, nil)
}
