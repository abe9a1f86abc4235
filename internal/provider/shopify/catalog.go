package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/provider"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// ProductsWithVariantsQuery fetches products with variants, cursor-paginated
const ProductsWithVariantsQuery = `
query getProducts($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        title
        variants(first: 250) {
          edges {
            node {
              id
              sku
              title
              price
              inventoryQuantity
              updatedAt
            }
          }
        }
      }
    }
  }
}
`

type productsData struct {
	Products struct {
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
		Edges []struct {
			Node struct {
				ID       string `json:"id"`
				Title    string `json:"title"`
				Variants struct {
					Edges []struct {
						Node struct {
							SKU               string `json:"sku"`
							Title             string `json:"title"`
							Price             string `json:"price"`
							InventoryQuantity int    `json:"inventoryQuantity"`
							UpdatedAt         string `json:"updatedAt"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

// ListVariants implements provider.Storefront. Transport failures surface as
// ErrTransport so the scheduler retries the pass.
func (c *Client) ListVariants(ctx context.Context, cursor string, limit int) (provider.CatalogPage, error) {
	if limit <= 0 {
		limit = 50
	}
	variables := map[string]interface{}{"first": limit}
	if cursor != "" {
		variables["after"] = cursor
	}

	resp, err := c.Execute(ctx, ProductsWithVariantsQuery, variables)
	if err != nil {
		return provider.CatalogPage{}, &errors.ErrTransport{Op: "shopify products query", Err: err}
	}

	var data productsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return provider.CatalogPage{}, &errors.ErrTransport{
			Op:  "shopify products query",
			Err: fmt.Errorf("failed to parse products payload: %w", err),
		}
	}

	page := provider.CatalogPage{
		NextCursor: data.Products.PageInfo.EndCursor,
		HasNext:    data.Products.PageInfo.HasNextPage,
	}
	for _, productEdge := range data.Products.Edges {
		for _, variantEdge := range productEdge.Node.Variants.Edges {
			node := variantEdge.Node
			price, err := decimal.NewFromString(node.Price)
			if err != nil {
				price = decimal.Zero
			}
			updatedAt, _ := time.Parse(time.RFC3339, node.UpdatedAt)
			page.Items = append(page.Items, domain.CatalogVariant{
				SKU:               node.SKU,
				Title:             productEdge.Node.Title,
				VariantTitle:      node.Title,
				ProductID:         productEdge.Node.ID,
				InventoryQuantity: node.InventoryQuantity,
				Price:             price,
				UpdatedAt:         updatedAt,
			})
		}
	}
	return page, nil
}
