package main

import (
	"fmt"

	"frontdesk-order-services/internal/billing"
	"frontdesk-order-services/internal/catalog"
	"frontdesk-order-services/internal/domain"
	"frontdesk-order-services/internal/store/memory"

	"github.com/shopspring/decimal"
)

// seedDemo fills the in-memory driver with one outlet's floor plan and menu
// so the API is usable without a database.
func seedDemo(st *memory.Store, menu *catalog.Static) {
	const outletID = 1
	for floor := int64(1); floor <= 2; floor++ {
		for n := 1; n <= 6; n++ {
			st.SeedTable(domain.Table{
				OutletID: outletID,
				FloorID:  floor,
				Label:    fmt.Sprintf("F%d-T%d", floor, n),
				Capacity: 4,
				Status:   domain.TableAvailable,
			})
		}
	}

	gst5 := int64(1)
	items := []catalog.MenuItem{
		{ID: 1, Name: "Veg Thali", Price: decimal.NewFromInt(400), Station: "kitchen"},
		{ID: 2, Name: "Paneer Tikka", Price: decimal.NewFromInt(320), Station: "tandoor"},
		{ID: 3, Name: "Butter Naan", Price: decimal.NewFromInt(60), Station: "tandoor"},
		{ID: 4, Name: "Fresh Lime Soda", Price: decimal.NewFromInt(120), Station: "bar"},
		{ID: 5, Name: "Gulab Jamun", Price: decimal.NewFromInt(150), Station: "dessert"},
	}
	for _, it := range items {
		it.OutletID = outletID
		it.TaxGroupID = &gst5
		menu.AddItem(it)
	}

	tax := map[int64]billing.TaxGroup{gst5: {
		ID:   gst5,
		Name: "GST 5%",
		Components: []billing.TaxComponent{
			{Name: "CGST", Rate: decimal.RequireFromString("2.5")},
			{Name: "SGST", Rate: decimal.RequireFromString("2.5")},
		},
	}}
	menu.SetCharges(outletID, domain.OrderDineIn, billing.Config{
		TaxGroups:     tax,
		ServiceCharge: billing.Charge{Kind: billing.ChargePercentage, Value: decimal.NewFromInt(10)},
	})
	menu.SetCharges(outletID, domain.OrderTakeaway, billing.Config{
		TaxGroups:       tax,
		PackagingCharge: decimal.NewFromInt(20),
	})
	menu.SetCharges(outletID, domain.OrderDelivery, billing.Config{
		TaxGroups:       tax,
		PackagingCharge: decimal.NewFromInt(20),
		DeliveryCharge:  decimal.NewFromInt(40),
	})
}
