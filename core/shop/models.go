package shop

import "time"

const (
	OrderPending   = "Pending"
	OrderShipped   = "Shipped"
	OrderDelivered = "Delivered"
	OrderCancelled = "Cancelled"
)

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Description string  `json:"description"`
	Warehouse   string  `json:"warehouse"`
}

// Value is the worth of the product's stock.
func (p Product) Value() float64 {
	return p.Price * float64(p.Stock)
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (ci CartItem) TotalPrice() float64 {
	return ci.Product.Price * float64(ci.Quantity)
}

type Order struct {
	ID            string     `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	Items         []CartItem `json:"items"`
	TotalAmount   float64    `json:"total_amount"`
	OrderDate     time.Time  `json:"order_date"`
	Status        string     `json:"status"`
}

// SampleProducts is the catalogue the demo starts with.
func SampleProducts() []Product {
	return []Product{
		{ID: "P001", Name: "iPhone 15", Category: "Electronics", Price: 999.99, Stock: 50, Description: "Latest Apple smartphone", Warehouse: "Main"},
		{ID: "P002", Name: "MacBook Pro", Category: "Electronics", Price: 1999.99, Stock: 25, Description: "Professional laptop", Warehouse: "Main"},
		{ID: "P003", Name: "Nike Air Max", Category: "Shoes", Price: 129.99, Stock: 100, Description: "Comfortable running shoes", Warehouse: "Warehouse-A"},
		{ID: "P004", Name: "Levi's Jeans", Category: "Clothing", Price: 79.99, Stock: 75, Description: "Classic denim jeans", Warehouse: "Warehouse-A"},
		{ID: "P005", Name: "Coffee Maker", Category: "Appliances", Price: 89.99, Stock: 5, Description: "Automatic drip coffee maker", Warehouse: "Warehouse-B"},
	}
}
