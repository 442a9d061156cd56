package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/node-dojo/dojo-store-api/internal/config"
	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/provider"
	"github.com/node-dojo/dojo-store-api/internal/repository"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/gin-gonic/gin"
)

func setupAdminRoutes(t *testing.T) (*gin.Engine, *provider.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := kvstore.NewMemoryStore()
	balanceRepo := repository.NewBalanceRepository(store)
	txnRepo := repository.NewTransactionRepository(store)
	giftRepo := repository.NewGiftCardRepository(store)
	credit := service.NewCreditService(balanceRepo, txnRepo)

	container := &provider.Container{
		Config:          &config.Config{},
		Store:           store,
		CreditService:   credit,
		GiftCardService: service.NewGiftCardService(giftRepo, credit),
	}
	h := New(container)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("admin_email", "ops@node-dojo.dev")
	})
	r.POST("/admin/gift-cards/generate", h.GenerateGiftCards)
	r.POST("/admin/gift-cards/export", h.ExportGiftCards)
	r.GET("/admin/gift-cards/:code", h.GetGiftCard)
	r.POST("/admin/credit/adjust", h.AdjustCredit)
	return r, container
}

func adminPost(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateAndExportGiftCards(t *testing.T) {
	r, _ := setupAdminRoutes(t)

	w := adminPost(t, r, "/admin/gift-cards/generate", `{"quantity":2,"value_cents":1000,"note":"promo"}`)
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var data struct {
		GiftCards []models.GiftCard `json:"gift_cards"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("unmarshal data failed: %v", err)
	}
	if len(data.GiftCards) != 2 {
		t.Fatalf("want 2 cards got %d", len(data.GiftCards))
	}
	for _, card := range data.GiftCards {
		if card.IssuedBy != "ops@node-dojo.dev" {
			t.Fatalf("issued_by want ops@node-dojo.dev got %s", card.IssuedBy)
		}
	}

	codes := fmt.Sprintf(`[%q,%q]`, data.GiftCards[0].Code, data.GiftCards[1].Code)
	w2 := adminPost(t, r, "/admin/gift-cards/export", fmt.Sprintf(`{"codes":%s,"format":"csv"}`, codes))
	if w2.Code != http.StatusOK {
		t.Fatalf("export status want 200 got %d", w2.Code)
	}
	body := w2.Body.String()
	if !strings.HasPrefix(body, "code,value,status") {
		t.Fatalf("csv header missing, body: %s", body)
	}
	if !strings.Contains(body, "10.00") {
		t.Fatalf("csv should contain card value 10.00, body: %s", body)
	}
	if disposition := w2.Header().Get("Content-Disposition"); !strings.Contains(disposition, "attachment") {
		t.Fatalf("export should be a file download, got %s", disposition)
	}
}

func TestAdjustCreditDirections(t *testing.T) {
	r, container := setupAdminRoutes(t)

	w := adminPost(t, r, "/admin/credit/adjust",
		`{"email":"user@example.com","amount_cents":4000,"direction":"add","remark":"goodwill"}`)
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("add status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}

	w2 := adminPost(t, r, "/admin/credit/adjust",
		`{"email":"user@example.com","amount_cents":9999,"direction":"deduct"}`)
	var resp2 apiResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &resp2); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp2.StatusCode != 422 {
		t.Fatalf("overdraw status_code want 422 got %d", resp2.StatusCode)
	}

	balance, err := container.CreditService.GetBalance(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.Cents != 4000 {
		t.Fatalf("balance want 4000 got %d", balance.Cents)
	}

	w3 := adminPost(t, r, "/admin/credit/adjust",
		`{"email":"user@example.com","amount_cents":1000,"direction":"sideways"}`)
	var resp3 apiResponse
	if err := json.Unmarshal(w3.Body.Bytes(), &resp3); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp3.StatusCode != 400 {
		t.Fatalf("bad direction status_code want 400 got %d", resp3.StatusCode)
	}
}
