package public

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/node-dojo/dojo-store-api/internal/config"
	"github.com/node-dojo/dojo-store-api/internal/kvstore"
	"github.com/node-dojo/dojo-store-api/internal/models"
	"github.com/node-dojo/dojo-store-api/internal/provider"
	"github.com/node-dojo/dojo-store-api/internal/repository"
	"github.com/node-dojo/dojo-store-api/internal/service"

	"github.com/gin-gonic/gin"
)

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupPublicHandlerTest(t *testing.T) (*gin.Engine, *provider.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := kvstore.NewMemoryStore()
	balanceRepo := repository.NewBalanceRepository(store)
	txnRepo := repository.NewTransactionRepository(store)
	giftRepo := repository.NewGiftCardRepository(store)
	resRepo := repository.NewReservationRepository(store)
	credit := service.NewCreditService(balanceRepo, txnRepo)

	container := &provider.Container{
		Config:             &config.Config{},
		Store:              store,
		CreditService:      credit,
		GiftCardService:    service.NewGiftCardService(giftRepo, credit),
		ReservationService: service.NewReservationService(resRepo, credit, time.Hour),
	}
	h := New(container)

	r := gin.New()
	r.POST("/webhooks/checkout-completed", h.CheckoutCompleted)
	r.POST("/webhooks/gift-card-fulfilled", h.GiftCardFulfilled)
	return r, container
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) apiResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestCheckoutCompletedCommitsReservation(t *testing.T) {
	r, container := setupPublicHandlerTest(t)
	ctx := context.Background()

	if _, err := container.CreditService.Credit(ctx, service.CreditChangeInput{
		Email:  "buyer@example.com",
		Amount: 5000,
		Source: models.TxnSourceGiftCard,
	}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if _, err := container.ReservationService.Reserve(ctx, service.ReserveInput{
		Email:          "buyer@example.com",
		RequestedCents: 2000,
		ReservationID:  "disc-1",
		CheckoutRef:    "order-77",
	}); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	resp := postJSON(t, r, "/webhooks/checkout-completed",
		`{"event_id":"evt-1","reservation_id":"disc-1","order_id":"order-77"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}

	balance, err := container.CreditService.GetBalance(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.Cents != 3000 {
		t.Fatalf("balance want 3000 got %d", balance.Cents)
	}

	// 预留已消费，重放同一事件应得到 not found
	replay := postJSON(t, r, "/webhooks/checkout-completed",
		`{"event_id":"evt-1","reservation_id":"disc-1","order_id":"order-77"}`)
	if replay.StatusCode != 404 {
		t.Fatalf("replay status_code want 404 got %d", replay.StatusCode)
	}
	balance, err = container.CreditService.GetBalance(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.Cents != 3000 {
		t.Fatalf("replay must not double debit, balance got %d", balance.Cents)
	}
}

func TestCheckoutCompletedUnknownReservation(t *testing.T) {
	r, _ := setupPublicHandlerTest(t)

	resp := postJSON(t, r, "/webhooks/checkout-completed",
		`{"event_id":"evt-2","reservation_id":"missing"}`)
	if resp.StatusCode != 404 {
		t.Fatalf("status_code want 404 got %d", resp.StatusCode)
	}
}

func TestGiftCardFulfilledIssuesCards(t *testing.T) {
	r, container := setupPublicHandlerTest(t)

	resp := postJSON(t, r, "/webhooks/gift-card-fulfilled",
		`{"event_id":"evt-3","order_id":"order-9","purchaser_email":"buyer@example.com","quantity":2,"value_cents":2500}`)
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}

	var data struct {
		GiftCards []models.GiftCard `json:"gift_cards"`
		Count     int               `json:"count"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("unmarshal data failed: %v", err)
	}
	if data.Count != 2 || len(data.GiftCards) != 2 {
		t.Fatalf("want 2 cards got count=%d len=%d", data.Count, len(data.GiftCards))
	}
	for _, card := range data.GiftCards {
		persisted, err := container.GiftCardService.GetGiftCard(context.Background(), card.Code)
		if err != nil {
			t.Fatalf("issued card %s not persisted: %v", card.Code, err)
		}
		if persisted.Status != models.GiftCardStatusActive {
			t.Fatalf("card %s status want active got %s", card.Code, persisted.Status)
		}
		if persisted.Value != 2500 {
			t.Fatalf("card %s value want 2500 got %d", card.Code, persisted.Value)
		}
	}
}

func TestGiftCardFulfilledBadPayload(t *testing.T) {
	r, _ := setupPublicHandlerTest(t)

	resp := postJSON(t, r, "/webhooks/gift-card-fulfilled", `{"event_id":"evt-4"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
}
