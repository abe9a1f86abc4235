// Seeds a running server with demo wine-shop orders. Useful for
// walking through the dashboard and order screens locally.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type demoItem struct {
	SKU      string `json:"sku"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

type demoOrder struct {
	ExternalOrderID string            `json:"external_order_id"`
	OrderNumber     string            `json:"order_number"`
	Currency        string            `json:"currency"`
	Total           string            `json:"total_price"`
	Customer        map[string]string `json:"customer"`
	Items           []demoItem        `json:"items"`
}

func demoOrders() []demoOrder {
	return []demoOrder{
		{
			ExternalOrderID: "shopify-1001",
			OrderNumber:     "#1001",
			Currency:        "USD",
			Total:           "185.00",
			Customer:        map[string]string{"name": "Ada Vintner", "email": "ada@example.com"},
			Items: []demoItem{
				{SKU: "WINE-CABERNET-2021", Title: "Cabernet Sauvignon 2021", Quantity: 2, Price: "65.00"},
				{SKU: "WINE-MERLOT-2020", Title: "Merlot 2020", Quantity: 1, Price: "55.00"},
			},
		},
		{
			ExternalOrderID: "shopify-1002",
			OrderNumber:     "#1002",
			Currency:        "USD",
			Total:           "48.00",
			Customer:        map[string]string{"name": "Bram Cellars", "email": "bram@example.com"},
			Items: []demoItem{
				{SKU: "WINE-RIESLING-2022", Title: "Riesling 2022", Quantity: 2, Price: "24.00"},
			},
		},
		{
			ExternalOrderID: "shopify-1003",
			OrderNumber:     "#1003",
			Currency:        "USD",
			Total:           "140.00",
			Customer:        map[string]string{"name": "Clio Barrel", "email": "clio@example.com"},
			Items: []demoItem{
				{SKU: "WINE-SYRAH-2019", Title: "Syrah 2019", Quantity: 2, Price: "70.00"},
			},
		},
	}
}

func main() {
	// .env is optional here; flags and env vars win
	_ = godotenv.Load()

	baseURL := flag.String("url", "http://localhost:8080", "Server base URL")
	apiKey := flag.String("api-key", os.Getenv("DEMO_API_KEY"), "Tenant API key")
	flag.Parse()

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: --api-key (or DEMO_API_KEY) is required")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	for _, order := range demoOrders() {
		payload, err := json.Marshal(order)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal order %s: %v\n", order.ExternalOrderID, err)
			os.Exit(1)
		}

		req, err := http.NewRequest(http.MethodPost, *baseURL+"/v1/orders", bytes.NewReader(payload))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build request: %v\n", err)
			os.Exit(1)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+*apiKey)

		resp, err := client.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed for %s: %v\n", order.ExternalOrderID, err)
			os.Exit(1)
		}
		var body struct {
			Outcome string `json:"outcome"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		fmt.Printf("%s -> %d (%s)\n", order.ExternalOrderID, resp.StatusCode, body.Outcome)
	}

	fmt.Println("Demo orders submitted.")
}
