package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/dompet-pay/dompet_pay/internal/config"
	"github.com/dompet-pay/dompet_pay/internal/logging"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	cleanup, err := Setup(app, Deps{
		Cfg: config.Config{
			AppName:                  "test",
			AppEnv:                   "test",
			FraudSuspiciousThreshold: 10_000_000,
			FraudBlockThreshold:      50_000_000,
		},
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	t.Cleanup(cleanup)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, account, role string, body any) (int, map[string]any) {
	t.Helper()
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if account != "" {
		req.Header.Set("X-Account-ID", account)
	}
	if role != "" {
		req.Header.Set("X-Account-Role", role)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func TestHealthEndpointAlwaysResponds(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, fiber.MethodGet, "/healthz", "", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", status)
	}
	if body["status"] == nil {
		t.Fatalf("expected status payload, got %v", body)
	}
}

func TestProtectedRoutesRequireIdentity(t *testing.T) {
	app := newTestApp(t)

	status, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/wallets", "", "", nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", status)
	}
}

func TestDepositFlowEndToEnd(t *testing.T) {
	app := newTestApp(t)

	status, created := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets", "acc-1", "", map[string]any{"name": "main"})
	if status != fiber.StatusCreated {
		t.Fatalf("create wallet: expected 201 got %d", status)
	}
	walletID, _ := created["id"].(string)
	if walletID == "" {
		t.Fatalf("create wallet: missing id in %v", created)
	}

	status, tx := doJSON(t, app, fiber.MethodPost, "/api/v1/transactions", "acc-1", "", map[string]any{
		"wallet_id": walletID,
		"amount":    500_000,
		"kind":      "DEPOSIT",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create transaction: expected 201 got %d (%v)", status, tx)
	}
	if got := tx["status"]; got != "SUCCESS" {
		t.Fatalf("expected SUCCESS got %v", got)
	}
	if got := tx["balance_after"]; got != float64(500_000) {
		t.Fatalf("expected balance_after 500000 got %v", got)
	}

	txID, _ := tx["id"].(string)
	status, fetched := doJSON(t, app, fiber.MethodGet, "/api/v1/transactions/"+txID, "acc-1", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("get transaction: expected 200 got %d", status)
	}
	if fetched["status"] != "SUCCESS" {
		t.Fatalf("expected stable SUCCESS got %v", fetched["status"])
	}

	// Another account cannot read it.
	status, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/transactions/"+txID, "acc-2", "", nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("foreign account read: expected 404 got %d", status)
	}
}

func TestAdminSurfaceRequiresRole(t *testing.T) {
	app := newTestApp(t)

	status, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/admin/audit/records", "acc-1", "", nil)
	if status != fiber.StatusForbidden {
		t.Fatalf("customer on admin route: expected 403 got %d", status)
	}

	status, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/admin/audit/records", "ops-1", "admin", nil)
	if status != fiber.StatusOK {
		t.Fatalf("admin on admin route: expected 200 got %d", status)
	}
}

func TestAdminFreezeBlocksTransactions(t *testing.T) {
	app := newTestApp(t)

	_, created := doJSON(t, app, fiber.MethodPost, "/api/v1/wallets", "acc-1", "", map[string]any{"name": "main"})
	walletID, _ := created["id"].(string)

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/admin/wallets/"+walletID+"/freeze", "ops-1", "admin", nil)
	if status != fiber.StatusOK {
		t.Fatalf("freeze: expected 200 got %d", status)
	}

	status, tx := doJSON(t, app, fiber.MethodPost, "/api/v1/transactions", "acc-1", "", map[string]any{
		"wallet_id": walletID,
		"amount":    1_000,
		"kind":      "DEPOSIT",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("transaction on frozen wallet: expected 201 got %d", status)
	}
	if tx["status"] != "FAILED" || tx["failure_code"] != "WALLET_FROZEN" {
		t.Fatalf("expected FAILED/WALLET_FROZEN got %v/%v", tx["status"], tx["failure_code"])
	}
}
