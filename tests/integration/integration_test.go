//go:build integration

// Package integration exercises the API against a real PostgreSQL instance
// started with testcontainers. Run with:
//
//	go test -tags integration ./tests/integration/
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/velsh/stockdeck/internal/domain/dashboard"
	"github.com/velsh/stockdeck/internal/domain/order"
	"github.com/velsh/stockdeck/internal/domain/product"
	"github.com/velsh/stockdeck/internal/handler"
	"github.com/velsh/stockdeck/internal/storage/postgres"
)

var (
	baseURL    string
	pool       *pgxpool.Pool
	httpClient *http.Client
)

// Response types mirror the API's JSON wire format.

type productResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	Stock             int     `json:"stock"`
	LowStockThreshold int     `json:"lowStockThreshold"`
	Status            string  `json:"status"`
	Urgency           string  `json:"urgency"`
	CreatedAt         string  `json:"createdAt"`
}

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	Items      []orderItemResponse `json:"items"`
	TotalPrice float64             `json:"totalPrice"`
	CreatedAt  string              `json:"createdAt"`
}

type dashboardStatsResponse struct {
	TotalProducts    int               `json:"totalProducts"`
	TotalOrders      int               `json:"totalOrders"`
	LowStockCount    int               `json:"lowStockCount"`
	RecentOrders     []orderResponse   `json:"recentOrders"`
	LowStockProducts []productResponse `json:"lowStockProducts"`
}

type errorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Shortages []struct {
		ProductID string `json:"productId"`
		Requested int    `json:"requested"`
		Available int    `json:"available"`
	} `json:"shortages"`
}

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     "stockdeck",
				"POSTGRES_PASSWORD": "stockdeck",
				"POSTGRES_DB":       "stockdeck",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pg.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("container host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://stockdeck:stockdeck@%s:%s/stockdeck?sslmode=disable", host, port.Port())

	pool, err = postgres.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	// Wire the full stack exactly as the server binary does, minus the
	// process-level middleware.
	repo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	h := handler.NewHandler(
		product.NewService(repo, repo),
		order.NewService(repo, orderRepo),
		dashboard.NewService(repo, orderRepo),
	)

	server := httptest.NewServer(h.Router())
	defer server.Close()

	baseURL = server.URL
	httpClient = server.Client()

	return m.Run()
}

// resetDB truncates all tables so each test starts from a clean slate.
func resetDB(t *testing.T) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), "TRUNCATE products, orders"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func doRequest(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func doGet(t *testing.T, path string) *http.Response {
	return doRequest(t, http.MethodGet, path, nil)
}

func doPost(t *testing.T, path string, body any) *http.Response {
	return doRequest(t, http.MethodPost, path, body)
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// createProduct seeds one product through the API and returns its ID.
func createProduct(t *testing.T, name string, price float64, stock, threshold int) string {
	t.Helper()

	resp := doPost(t, "/api/products", map[string]any{
		"name":              name,
		"price":             price,
		"stock":             stock,
		"lowStockThreshold": threshold,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product %q: status %d", name, resp.StatusCode)
	}
	return decodeJSON[productResponse](t, resp).ID
}
