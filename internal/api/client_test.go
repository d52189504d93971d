package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"venezia-storefront/internal/checkout"
	"venezia-storefront/internal/order"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestDoRaw_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok-123"))
	_, err := c.GetCart(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestDoRaw_AnonymousHasNoAuthHeader(t *testing.T) {
	var hadHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadHeader = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken(""))
	_, err := c.GetCart(context.Background())
	require.NoError(t, err)

	assert.False(t, hadHeader)
}

func TestGetCart_NormalizesEnvelopes(t *testing.T) {
	bodies := []string{
		`[{"id":1,"cantidad":2,"precio_unitario":50000,"stock_max":10}]`,
		`{"data":[{"id":1,"cantidad":2,"precio_unitario":50000,"stock_max":10}]}`,
		`{"items":[{"id":1,"cantidad":2,"precio_unitario":50000,"stock_max":10}],"total":1}`,
	}

	for _, body := range bodies {
		body := body
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		c := NewClient(srv.URL, staticToken("t"))
		items, err := c.GetCart(context.Background())
		srv.Close()

		require.NoError(t, err, body)
		require.Len(t, items, 1, body)
		assert.Equal(t, int64(1), items[0].ID)
		assert.Equal(t, 2, items[0].Quantity)
		assert.Equal(t, 50000.0, items[0].UnitPrice)
	}
}

func TestGetCart_NullBodyYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	items, err := c.GetCart(context.Background())

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDoRaw_Unauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken(""))
	_, err := c.GetCart(context.Background())

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDoRaw_BusinessRuleCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":"PROFILE_INCOMPLETE","message":"Completa tu dirección y teléfono"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	_, err := c.CreateOrder(context.Background(), checkout.OrderDraft{})

	require.Error(t, err)
	assert.True(t, IsCode(err, "PROFILE_INCOMPLETE"))
	assert.False(t, IsTransient(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "PROFILE_INCOMPLETE", apiErr.ErrorCode())
}

func TestDoRaw_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	_, err := c.GetCart(context.Background())

	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	for i := 0; i < 5; i++ {
		_, err := c.GetCart(context.Background())
		require.Error(t, err)
	}

	_, err := c.GetCart(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, IsTransient(err))

	stats := c.Stats()
	assert.EqualValues(t, 6, stats.Requests)
	assert.EqualValues(t, 6, stats.Failures)
}

func TestCartEndpoints_PathsAndBodies(t *testing.T) {
	type call struct {
		method, path, body string
	}
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, string(body)})
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	ctx := context.Background()

	require.NoError(t, c.AddCartItem(ctx, 11, 2))
	require.NoError(t, c.UpdateCartItem(ctx, 4, 3))
	require.NoError(t, c.RemoveCartItem(ctx, 4))

	require.Len(t, calls, 3)
	assert.Equal(t, call{"POST", "/cart", `{"producto_variante_id":11,"cantidad":2}`}, calls[0])
	assert.Equal(t, call{"PUT", "/cart/4", `{"cantidad":3}`}, calls[1])
	assert.Equal(t, "DELETE", calls[2].method)
	assert.Equal(t, "/cart/4", calls[2].path)
}

func TestCreateOrder_DecodesPedidoEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var draft checkout.OrderDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, checkout.MethodWompi, draft.Method)
		w.Write([]byte(`{"pedido":{"id":55,"estado":"pendiente"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	created, err := c.CreateOrder(context.Background(), checkout.OrderDraft{Method: checkout.MethodWompi})

	require.NoError(t, err)
	assert.Equal(t, int64(55), created.ID)
	assert.Equal(t, "pendiente", created.Status)
}

func TestListOrders_StatusFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[{"id":9,"estado":"pendiente","total":130000}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	orders, err := c.ListOrders(context.Background(), order.StatusPending)

	require.NoError(t, err)
	assert.Equal(t, "estado=pendiente", gotQuery)
	require.Len(t, orders, 1)
	assert.Equal(t, order.StatusPending, orders[0].Status)
}

func TestInitWompiTransaction_Decode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OrderID int64 `json:"pedido_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(55), req.OrderID)

		w.Write([]byte(`{
			"public_key": "pub_test_abc",
			"currency": "COP",
			"amount_in_cents": 13000000,
			"reference": "VENEZIA-55-1",
			"redirect_url": "https://veneziapizzas.co/client/gracias",
			"signature": {"integrity": "deadbeef", "expiration_time": "2026-08-28T20:00:00Z"}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("t"))
	params, err := c.InitWompiTransaction(context.Background(), 55)

	require.NoError(t, err)
	assert.Empty(t, params.MissingFields())
	assert.Equal(t, int64(13000000), params.AmountInCents)
	assert.Equal(t, "deadbeef", params.Signature.Integrity)
}

func TestNormalizeList(t *testing.T) {
	out, err := normalizeList([]byte(`  [1,2]  `))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(out))

	out, err = normalizeList([]byte(`{"data":null,"items":[3]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[3]`, string(out))

	out, err = normalizeList([]byte(`{"total":0}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))

	_, err = normalizeList([]byte(`"nope"`))
	assert.Error(t, err)
}
