package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shopstream.app/sync/internal/model"
)

func loadCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load Retail Pro CSV exports",
		Long: `load reads customer.csv, document.csv and document_item.csv from --dir
and copies them into the source tables. Files that are missing are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), false, func(ctx context.Context, e env) error {
				if err := loadCustomers(ctx, e, filepath.Join(dir, "customer.csv")); err != nil {
					return err
				}
				if err := loadDocuments(ctx, e, filepath.Join(dir, "document.csv")); err != nil {
					return err
				}
				return loadDocumentItems(ctx, e, filepath.Join(dir, "document_item.csv"))
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the CSV exports")
	return cmd
}

func loadCustomers(ctx context.Context, e env, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("skipped %s (not found)\n", path)
			return nil
		}
		return err
	}

	customers := make([]model.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, model.Customer{
			SID:               row.get("SID"),
			CustID:            row.get("CUST_ID"),
			LastName:          row.get("LAST_NAME"),
			FirstName:         row.get("FIRST_NAME"),
			Email:             row.get("EMAIL"),
			MarketingFlag:     row.getDefault("MARKETING_FLAG", "0"),
			LoyaltyOptIn:      row.getDefault("LTY_OPT_IN", "0"),
			LoyaltyBalance:    row.getDefault("LTY_BALANCE", "0"),
			TotalTransactions: row.getInt32("TOTAL_TRANSACTIONS"),
			SaleItemCount:     row.getInt32("SALE_ITEM_COUNT"),
			ReturnItemCount:   row.getInt32("RETURN_ITEM_COUNT"),
			YTDSale:           row.getDefault("YTD_SALE", "0"),
			CreatedAt:         row.getTime("CREATED_DATETIME"),
		})
	}

	n, err := e.stores.Customers().BulkInsert(ctx, customers)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	fmt.Printf("loaded %d customers\n", n)
	return nil
}

func loadDocuments(ctx context.Context, e env, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("skipped %s (not found)\n", path)
			return nil
		}
		return err
	}

	orders := make([]model.Order, 0, len(rows))
	for _, row := range rows {
		order := model.Order{
			SID:              row.get("SID"),
			DocNo:            row.get("DOC_NO"),
			BillToCUID:       row.get("BT_CUID"),
			BillToEmail:      row.get("BT_EMAIL"),
			ShipToCUID:       row.get("ST_CUID"),
			ShipToEmail:      row.get("ST_EMAIL"),
			SaleTotalAmt:     row.getDefault("SALE_TOTAL_AMT", "0"),
			SaleSubtotal:     row.getDefault("SALE_SUBTOTAL", "0"),
			SaleTotalTaxAmt:  row.getDefault("SALE_TOTAL_TAX_AMT", "0"),
			TotalDiscountAmt: row.getDefault("TOTAL_DISCOUNT_AMT", "0"),
			ShippingAmt:      row.getDefault("SHIPPING_AMT", "0"),
			SoldQty:          row.getInt32("SOLD_QTY"),
			ReturnQty:        row.getInt32("RETURN_QTY"),
			CurrencyName:     row.get("CURRENCY_NAME"),
			TenderName:       row.get("TENDER_NAME"),
			StoreCode:        row.get("STORE_CODE"),
			SubsidiaryNo:     row.get("SBS_NO"),
			ShipMethod:       row.get("SHIP_METHOD"),
			HasSale:          row.getDefault("HAS_SALE", "0"),
			HasReturn:        row.getDefault("HAS_RETURN", "0"),
			CreatedAt:        row.getTime("CREATED_DATETIME"),
		}
		if t := row.getTime("POST_DATE"); !t.IsZero() {
			order.PostDate = &t
		}
		orders = append(orders, order)
	}

	n, err := e.stores.Orders().BulkInsert(ctx, orders)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	fmt.Printf("loaded %d documents\n", n)
	return nil
}

func loadDocumentItems(ctx context.Context, e env, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("skipped %s (not found)\n", path)
			return nil
		}
		return err
	}

	items := make([]model.OrderItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.OrderItem{
			SID:         row.get("SID"),
			DocSID:      row.get("DOC_SID"),
			ItemPos:     row.getInt32("ITEM_POS"),
			ALU:         row.get("ALU"),
			Description: row.get("DESCRIPTION1"),
			DCSCode:     row.get("DCS_CODE"),
			VendorCode:  row.get("VEND_CODE"),
			Qty:         row.getDefault("QTY", "1"),
			Price:       row.getDefault("PRICE", "0"),
			OrigPrice:   row.getDefault("ORIG_PRICE", "0"),
			DiscountAmt: row.getDefault("DISC_AMT", "0"),
			ItemSize:    row.get("ITEM_SIZE"),
			Attribute:   row.get("ATTRIBUTE"),
			InvnItemSID: row.get("INVN_SBS_ITEM_SID"),
		})
	}

	n, err := e.stores.Orders().BulkInsertItems(ctx, items)
	if err != nil {
		return fmt.Errorf("load document items: %w", err)
	}
	fmt.Printf("loaded %d document items\n", n)
	return nil
}

// csvRow maps header names to one record's values.
type csvRow struct {
	header map[string]int
	values []string
}

func (r csvRow) get(name string) string {
	i, ok := r.header[name]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r csvRow) getDefault(name, fallback string) string {
	if v := r.get(name); v != "" {
		return v
	}
	return fallback
}

func (r csvRow) getInt32(name string) int32 {
	n, err := strconv.ParseInt(r.get(name), 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

var csvTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (r csvRow) getTime(name string) time.Time {
	v := r.get(name)
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func readCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	header := make(map[string]int, len(head))
	for i, name := range head {
		// Excel exports prefix the first header with a BOM.
		header[strings.TrimPrefix(strings.TrimSpace(name), "\uFEFF")] = i
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, csvRow{header: header, values: record})
	}
	return rows, nil
}
