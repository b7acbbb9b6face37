package shop

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	orderPrefix = "ORD"
	orderBase   = 1000

	DefaultLowStockThreshold = 10
)

// Registry is the shop: catalogue, stock, the single cart and the orders.
type Registry struct {
	sync.RWMutex
	products map[string]*Product
	cart     []CartItem
	orders   []Order
	orderSeq int
}

func NewRegistry() *Registry {
	return &Registry{
		products: make(map[string]*Product),
		orderSeq: orderBase,
	}
}

// Catalogue

// AddProduct returns false when the id is taken.
func (r *Registry) AddProduct(p Product) bool {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.products[p.ID]; ok {
		return false
	}
	r.products[p.ID] = &p
	return true
}

func (r *Registry) RemoveProduct(id string) bool {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.products[id]; !ok {
		return false
	}
	delete(r.products, id)
	return true
}

func (r *Registry) GetProduct(id string) (Product, bool) {
	r.RLock()
	defer r.RUnlock()

	if p, ok := r.products[id]; ok {
		return *p, true
	}
	return Product{}, false
}

func (r *Registry) query(keep func(Product) bool) []Product {
	products := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		if keep == nil || keep(*p) {
			products = append(products, *p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func (r *Registry) AllProducts() []Product {
	r.RLock()
	defer r.RUnlock()
	return r.query(nil)
}

func (r *Registry) ProductsByCategory(category string) []Product {
	r.RLock()
	defer r.RUnlock()
	return r.query(func(p Product) bool { return strings.EqualFold(p.Category, category) })
}

// SearchProducts matches `keyword` case-insensitively against name, category and description.
func (r *Registry) SearchProducts(keyword string) []Product {
	kw := strings.ToLower(keyword)
	r.RLock()
	defer r.RUnlock()
	return r.query(func(p Product) bool {
		return strings.Contains(strings.ToLower(p.Name), kw) ||
			strings.Contains(strings.ToLower(p.Category), kw) ||
			strings.Contains(strings.ToLower(p.Description), kw)
	})
}

func (r *Registry) Categories() []string {
	r.RLock()
	defer r.RUnlock()

	set := make(map[string]struct{})
	for _, p := range r.products {
		set[p.Category] = struct{}{}
	}
	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// Inventory

func (r *Registry) AddStock(id string, qty int) bool {
	r.Lock()
	defer r.Unlock()

	p, ok := r.products[id]
	if !ok || qty < 0 {
		return false
	}
	p.Stock += qty
	return true
}

// RemoveStock returns false when fewer than `qty` items are in stock.
func (r *Registry) RemoveStock(id string, qty int) bool {
	r.Lock()
	defer r.Unlock()

	p, ok := r.products[id]
	if !ok || qty < 0 || p.Stock < qty {
		return false
	}
	p.Stock -= qty
	return true
}

func (r *Registry) SetStock(id string, qty int) bool {
	r.Lock()
	defer r.Unlock()

	p, ok := r.products[id]
	if !ok || qty < 0 {
		return false
	}
	p.Stock = qty
	return true
}

// LowStockProducts lists the products with fewer than `threshold` items in stock.
func (r *Registry) LowStockProducts(threshold int) []Product {
	r.RLock()
	defer r.RUnlock()
	return r.query(func(p Product) bool { return p.Stock < threshold })
}

func (r *Registry) InventoryValue() float64 {
	r.RLock()
	defer r.RUnlock()

	var total float64
	for _, p := range r.products {
		total += p.Value()
	}
	return total
}

// Cart

// AddToCart adds `qty` items, merging with what the cart already holds, as long as the stock covers it.
func (r *Registry) AddToCart(productID string, qty int) bool {
	r.Lock()
	defer r.Unlock()

	p, ok := r.products[productID]
	if !ok || qty <= 0 || p.Stock < qty {
		return false
	}
	for i := range r.cart {
		if r.cart[i].Product.ID == productID {
			if p.Stock < r.cart[i].Quantity+qty {
				return false
			}
			r.cart[i].Quantity += qty
			return true
		}
	}
	r.cart = append(r.cart, CartItem{Product: *p, Quantity: qty})
	return true
}

func (r *Registry) RemoveFromCart(productID string) bool {
	r.Lock()
	defer r.Unlock()

	for i := range r.cart {
		if r.cart[i].Product.ID == productID {
			r.cart = append(r.cart[:i], r.cart[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) Cart() []CartItem {
	r.RLock()
	defer r.RUnlock()
	return append([]CartItem(nil), r.cart...)
}

func (r *Registry) CartTotal() float64 {
	r.RLock()
	defer r.RUnlock()
	return cartTotal(r.cart)
}

func cartTotal(items []CartItem) float64 {
	var total float64
	for _, ci := range items {
		total += ci.TotalPrice()
	}
	return total
}

func (r *Registry) ClearCart() {
	r.Lock()
	defer r.Unlock()
	r.cart = nil
}

// Orders

// Checkout turns the cart into a pending order. Stock is only reduced once every item is available.
func (r *Registry) Checkout(customerName, customerEmail string) (Order, error) {
	r.Lock()
	defer r.Unlock()

	if len(r.cart) == 0 {
		return Order{}, ErrEmptyCart
	}
	for _, ci := range r.cart {
		p, ok := r.products[ci.Product.ID]
		if !ok || p.Stock < ci.Quantity {
			return Order{}, errors.Wrapf(ErrInsufficientStock, "product %s", ci.Product.ID)
		}
	}
	for _, ci := range r.cart {
		r.products[ci.Product.ID].Stock -= ci.Quantity
	}

	r.orderSeq++
	order := Order{
		ID:            fmt.Sprintf("%s%d", orderPrefix, r.orderSeq),
		CustomerName:  core.CleanString(customerName),
		CustomerEmail: core.CleanString(customerEmail, true /* lower */),
		Items:         r.cart,
		TotalAmount:   cartTotal(r.cart),
		OrderDate:     NowFunc().UTC(),
		Status:        OrderPending,
	}
	r.orders = append(r.orders, order)
	r.cart = nil
	return copyOrder(order), nil
}

func copyOrder(o Order) Order {
	o.Items = append([]CartItem(nil), o.Items...)
	return o
}

func (r *Registry) AllOrders() []Order {
	r.RLock()
	defer r.RUnlock()

	orders := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, copyOrder(o))
	}
	return orders
}

func (r *Registry) GetOrder(id string) (Order, bool) {
	r.RLock()
	defer r.RUnlock()

	for _, o := range r.orders {
		if o.ID == id {
			return copyOrder(o), true
		}
	}
	return Order{}, false
}

func (r *Registry) UpdateOrderStatus(id, status string) bool {
	r.Lock()
	defer r.Unlock()

	for i := range r.orders {
		if r.orders[i].ID == id {
			r.orders[i].Status = status
			return true
		}
	}
	return false
}
