package momo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) Config {
	return Config{
		PartnerCode: "PC",
		AccessKey:   "AK",
		SecretKey:   "secret",
		Endpoint:    endpoint,
		RedirectURL: "https://shop.example/return",
		IpnURL:      "https://shop.example/ipn",
		Timeout:     2 * time.Second,
	}
}

func TestCreatePayment_Success(t *testing.T) {
	var got CreateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/gateway/api/create", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(CreateResponse{
			PartnerCode: "PC",
			RequestID:   got.RequestID,
			OrderID:     got.OrderID,
			Amount:      got.Amount,
			ResultCode:  0,
			Message:     "Successful.",
			PayURL:      "https://test-payment.momo.vn/pay/abc",
		})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())

	resp, err := c.CreatePayment(context.Background(), CreateInput{
		RequestID: "req-1",
		OrderID:   "7-req-1",
		Amount:    1030000,
		OrderInfo: "order #7",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://test-payment.momo.vn/pay/abc", resp.PayURL)

	//送ったボディの署名が正しいこと
	assert.Equal(t, "captureWallet", got.RequestType)
	assert.Equal(t, Sign("secret", createRawSignature("AK", got)), got.Signature)
}

func TestCreatePayment_GatewayRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(CreateResponse{ResultCode: 41, Message: "duplicated orderId"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())

	_, err := c.CreatePayment(context.Background(), CreateInput{RequestID: "r", OrderID: "1-r", Amount: 100})
	require.Error(t, err)

	var ge *GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, 41, ge.ResultCode)
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestCreatePayment_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := NewClient(cfg, srv.Client())

	_, err := c.CreatePayment(context.Background(), CreateInput{RequestID: "r", OrderID: "1-r", Amount: 100})
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestCreatePayment_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())

	_, err := c.CreatePayment(context.Background(), CreateInput{RequestID: "r", OrderID: "1-r", Amount: 100})
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestQueryStatus(t *testing.T) {
	var got QueryRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/gateway/api/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(QueryResponse{
			OrderID:    got.OrderID,
			Amount:     1030000,
			TransID:    900123,
			ResultCode: 0,
		})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())

	resp, err := c.QueryStatus(context.Background(), "req-1", "7-req-1")
	require.NoError(t, err)
	assert.Equal(t, int64(900123), resp.TransID)
	assert.Equal(t, Sign("secret", queryRawSignature("AK", got)), got.Signature)
}
