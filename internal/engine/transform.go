package engine

import (
	"math"
	"strconv"
	"strings"

	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/segment"
)

// Track event names for order rows.
const (
	EventOrderCompleted = "Order Completed"
	EventOrderRefunded  = "Order Refunded"
)

// identifyEventName discriminates customer identify events in delivery keys
// and failure records.
const identifyEventName = "identify"

// TransformCustomer maps one customer row into an identify event. Recognized
// fields become traits; empty fields are omitted rather than sent as empty
// strings. Fails with *ValidationError when the row is malformed.
func TransformCustomer(c model.Customer) (segment.Event, error) {
	if strings.TrimSpace(c.SID) == "" {
		return segment.Event{}, validationErrorf("sid", "missing required field")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return segment.Event{}, validationErrorf("email", "invalid format: %q", c.Email)
	}

	loyaltyPoints, err := parseCount("lty_balance", c.LoyaltyBalance, 0)
	if err != nil {
		return segment.Event{}, err
	}
	ytdSpend, err := parseAmount("ytd_sale", c.YTDSale)
	if err != nil {
		return segment.Event{}, err
	}

	traits := map[string]any{
		"marketingOptIn":         c.MarketingFlag == "1",
		"loyaltyOptIn":           c.LoyaltyOptIn == "1",
		"loyaltyPoints":          loyaltyPoints,
		"totalOrders":            int(c.TotalTransactions),
		"lifetimeItemsPurchased": int(c.SaleItemCount),
		"lifetimeItemsReturned":  int(c.ReturnItemCount),
		"ytdSpend":               round2(ytdSpend),
	}
	putNonEmpty(traits, "email", c.Email)
	putNonEmpty(traits, "firstName", c.FirstName)
	putNonEmpty(traits, "lastName", c.LastName)
	putNonEmpty(traits, "customerId", c.CustID)

	externalID := c.CustID
	if externalID == "" {
		externalID = c.SID
	}

	return segment.Event{
		Type:      segment.EventTypeIdentify,
		UserID:    c.SID,
		MessageID: DeliveryKey(model.EntityTypeCustomer, c.SID, identifyEventName),
		Timestamp: c.CreatedAt,
		Traits:    traits,
		Context: map[string]any{
			"externalIds": []map[string]any{{
				"id":         externalID,
				"type":       "retailProCustomerId",
				"collection": "users",
				"encoding":   "none",
			}},
		},
	}, nil
}

// TransformOrder maps one order row (with its line items) into a track event:
// "Order Completed" for sales, "Order Refunded" for returns. The acting
// customer resolves bill-to first, then ship-to; an order with no resolvable
// customer reference fails validation rather than being attributed to itself.
func TransformOrder(o model.Order) (segment.Event, error) {
	if strings.TrimSpace(o.SID) == "" {
		return segment.Event{}, validationErrorf("sid", "missing required field")
	}

	userID := o.BillToCUID
	if userID == "" {
		userID = o.ShipToCUID
	}
	if userID == "" {
		return segment.Event{}, validationErrorf("customer", "no resolvable customer reference")
	}

	hasSale := o.HasSale == "1"
	hasReturn := o.HasReturn == "1"
	if !hasSale && !hasReturn {
		return segment.Event{}, validationErrorf("order", "neither sale nor return flag set")
	}

	total, err := parseAmount("sale_total_amt", o.SaleTotalAmt)
	if err != nil {
		return segment.Event{}, err
	}

	eventName := EventOrderCompleted
	revenue := total
	if !hasSale {
		eventName = EventOrderRefunded
		revenue = math.Abs(total)
	}

	subtotal, err := parseAmount("sale_subtotal", o.SaleSubtotal)
	if err != nil {
		return segment.Event{}, err
	}
	tax, err := parseAmount("sale_total_tax_amt", o.SaleTotalTaxAmt)
	if err != nil {
		return segment.Event{}, err
	}
	shipping, err := parseAmount("shipping_amt", o.ShippingAmt)
	if err != nil {
		return segment.Event{}, err
	}
	discount, err := parseAmount("total_discount_amt", o.TotalDiscountAmt)
	if err != nil {
		return segment.Event{}, err
	}

	products := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		price, err := parseAmount("item price", item.Price)
		if err != nil {
			return segment.Event{}, err
		}
		qty, err := parseCount("item qty", item.Qty, 1)
		if err != nil {
			return segment.Event{}, err
		}

		product := map[string]any{
			"price":    round2(price),
			"quantity": qty,
		}
		putNonEmpty(product, "product_id", item.InvnItemSID)
		putNonEmpty(product, "sku", item.ALU)
		putNonEmpty(product, "name", item.Description)
		putNonEmpty(product, "category", item.DCSCode)
		putNonEmpty(product, "brand", item.VendorCode)
		products = append(products, product)
	}

	currency := o.CurrencyName
	if currency == "" {
		currency = "USD"
	}

	properties := map[string]any{
		"orderId":  o.DocNo,
		"revenue":  round2(revenue),
		"subtotal": round2(subtotal),
		"tax":      round2(tax),
		"shipping": round2(shipping),
		"discount": round2(discount),
		"currency": currency,
		"products": products,
	}
	putNonEmpty(properties, "paymentMethod", o.TenderName)
	putNonEmpty(properties, "storeId", o.StoreCode)
	putNonEmpty(properties, "shippingMethod", o.ShipMethod)

	ev := segment.Event{
		Type:       segment.EventTypeTrack,
		UserID:     userID,
		Name:       eventName,
		MessageID:  DeliveryKey(model.EntityTypeOrder, o.SID, eventName),
		Timestamp:  o.CreatedAt,
		Properties: properties,
	}

	email := o.BillToEmail
	if email == "" {
		email = o.ShipToEmail
	}
	if email != "" {
		ev.Context = map[string]any{"traits": map[string]any{"email": email}}
	}

	return ev, nil
}

// parseAmount parses a loosely typed monetary string. Empty means absent and
// coerces to zero; a non-empty value that does not parse is a validation
// failure, never a silent default.
func parseAmount(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, validationErrorf(field, "not a number: %q", s)
	}
	return f, nil
}

// parseCount parses a loosely typed integer string with the same rules,
// substituting fallback for an empty value.
func parseCount(field, s string, fallback int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, validationErrorf(field, "not an integer: %q", s)
	}
	return n, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func putNonEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
