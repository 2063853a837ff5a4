package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukkan-pos/dukkan/internal/app"
	"github.com/dukkan-pos/dukkan/internal/checkout"
	"github.com/dukkan-pos/dukkan/internal/customers"
	"github.com/dukkan-pos/dukkan/internal/inventory"
	"github.com/dukkan-pos/dukkan/internal/settings"
	"github.com/dukkan-pos/dukkan/internal/shared"
	"github.com/dukkan-pos/dukkan/internal/store"
)

var demoProducts = []inventory.ProductInput{
	{Name: "أرز بسمتي", Quantity: 40, Unit: inventory.UnitKilo, PurchasePrice: "7500", SellPrice: "9000"},
	{Name: "سكر", Quantity: 60, Unit: inventory.UnitKilo, PurchasePrice: "5000", SellPrice: "6000"},
	{Name: "زيت دوار الشمس", Quantity: 24, Unit: inventory.UnitBox, PurchasePrice: "18000", SellPrice: "21000"},
	{Name: "شاي أسود", Quantity: 30, Unit: inventory.UnitBox, PurchasePrice: "12000", SellPrice: "14500"},
	{Name: "معكرونة", Quantity: 50, Unit: inventory.UnitBox, PurchasePrice: "3000", SellPrice: "4000"},
	{Name: "صابون غسيل", Quantity: 0, Unit: inventory.UnitBox, PurchasePrice: "9000", SellPrice: "11000"},
}

var demoCustomers = []customers.CreateCustomerRequest{
	{Name: "أحمد", Phone: "+963 944 111 222"},
	{Name: "فاطمة", Phone: "+963 933 555 666"},
	{Name: "علي", Phone: "+963 988 777 000"},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	services, err := app.NewServices(st, cfg, logger, nil)
	if err != nil {
		log.Fatalf("wire services: %v", err)
	}

	fmt.Println("→ Seeding store profile...")
	if err := seedStoreInfo(ctx, services.Settings); err != nil {
		log.Fatalf("seed store profile: %v", err)
	}

	fmt.Println("→ Seeding products...")
	products, err := seedProducts(ctx, services.Inventory)
	if err != nil {
		log.Fatalf("seed products: %v", err)
	}

	fmt.Println("→ Seeding customers...")
	buyers, err := seedCustomers(ctx, services.Customers)
	if err != nil {
		log.Fatalf("seed customers: %v", err)
	}

	fmt.Println("→ Seeding sales...")
	if err := seedSales(ctx, services.Checkout, products, buyers); err != nil {
		log.Fatalf("seed sales: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedStoreInfo(ctx context.Context, svc *settings.Service) error {
	_, err := svc.StoreInfo(ctx)
	if err == nil {
		fmt.Println("  store profile already configured, skipping")
		return nil
	}
	if !errors.Is(err, shared.ErrSetupRequired) {
		return err
	}
	_, err = svc.Setup(ctx, settings.StoreInfo{Name: "دكان الحي", Phone: "+963 11 222 3333"})
	return err
}

func seedProducts(ctx context.Context, svc *inventory.Service) ([]inventory.Product, error) {
	existing, err := svc.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		fmt.Printf("  %d products present, skipping\n", len(existing))
		return nil, nil
	}
	out := make([]inventory.Product, 0, len(demoProducts))
	for _, input := range demoProducts {
		p, err := svc.AddProduct(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", input.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func seedCustomers(ctx context.Context, svc *customers.Service) ([]customers.Customer, error) {
	existing, err := svc.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		fmt.Printf("  %d customers present, skipping\n", len(existing))
		return nil, nil
	}
	out := make([]customers.Customer, 0, len(demoCustomers))
	for _, req := range demoCustomers {
		c, err := svc.AddCustomer(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", req.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// seedSales records one cash sale and one sale on credit. It only runs on a
// freshly seeded catalogue.
func seedSales(ctx context.Context, svc *checkout.Service, products []inventory.Product, buyers []customers.Customer) error {
	if len(products) < 3 || len(buyers) == 0 {
		fmt.Println("  catalogue not freshly seeded, skipping")
		return nil
	}
	sales := []struct {
		lines      []checkout.Line
		customerID string
		paid       decimal.Decimal
	}{
		{
			lines: []checkout.Line{{ProductID: products[0].ID, Quantity: 2}, {ProductID: products[1].ID, Quantity: 1}},
			paid:  decimal.NewFromInt(24000),
		},
		{
			lines:      []checkout.Line{{ProductID: products[2].ID, Quantity: 1}},
			customerID: buyers[0].ID,
			paid:       decimal.NewFromInt(10000),
		},
	}
	for i, s := range sales {
		cart, _, err := svc.BuildCart(ctx, s.lines)
		if err != nil {
			return fmt.Errorf("sale %d cart: %w", i+1, err)
		}
		if _, err := svc.Checkout(ctx, checkout.Request{Cart: cart, CustomerID: s.customerID, AmountPaid: s.paid}); err != nil {
			return fmt.Errorf("sale %d: %w", i+1, err)
		}
	}
	return nil
}
