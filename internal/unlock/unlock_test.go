package unlock

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/existflow/binge/internal/model"
)

type fakeFlag struct {
	unlocked bool
}

func (f *fakeFlag) FullVersionUnlocked(context.Context) bool { return f.unlocked }

func (f *fakeFlag) SetFullVersionUnlocked(_ context.Context, v bool) error {
	f.unlocked = v
	return nil
}

type fakeStore struct {
	resp       ProductsResponse
	productErr error
	buy        Transaction
	buyErr     error
	restore    []Transaction
	fetched    int
}

func (f *fakeStore) Products(context.Context, []string) (ProductsResponse, error) {
	f.fetched++
	return f.resp, f.productErr
}

func (f *fakeStore) Buy(context.Context, string) (Transaction, error) { return f.buy, f.buyErr }

func (f *fakeStore) Restore(context.Context) ([]Transaction, error) { return f.restore, nil }

var unlockProduct = Product{ID: "unlock", Title: "Unlock", PriceMinor: 499, Currency: "USD"}

func TestStartLoadsProduct(t *testing.T) {
	store := &fakeStore{resp: ProductsResponse{Products: []Product{unlockProduct}}}
	m := NewManager(store, &fakeFlag{}, "unlock")
	assert.Equal(t, Loading, m.State().State)

	var seen []State
	m.OnChange(func(s RequestState) { seen = append(seen, s.State) })

	s := m.Start(context.Background())
	assert.Equal(t, Loaded, s.State)
	require.NotNil(t, s.Product)
	assert.Equal(t, "unlock", s.Product.ID)
	assert.Equal(t, []State{Loading, Loaded}, seen)
}

func TestStartSkipsFetchWhenUnlocked(t *testing.T) {
	store := &fakeStore{}
	m := NewManager(store, &fakeFlag{unlocked: true}, "unlock")

	assert.Equal(t, Purchased, m.Start(context.Background()).State)
	assert.Equal(t, 0, store.fetched)
}

func TestStartFailures(t *testing.T) {
	ctx := context.Background()

	m := NewManager(&fakeStore{}, &fakeFlag{}, "unlock")
	s := m.Start(ctx)
	assert.Equal(t, Failed, s.State)
	assert.ErrorIs(t, s.Err, model.ErrProductFetch)
	assert.ErrorIs(t, s.Err, ErrMissingProduct)

	m = NewManager(&fakeStore{resp: ProductsResponse{Products: []Product{unlockProduct}, InvalidIDs: []string{"bogus"}}}, &fakeFlag{}, "unlock")
	s = m.Start(ctx)
	assert.Equal(t, Failed, s.State)
	assert.ErrorIs(t, s.Err, ErrInvalidIdentifiers)

	m = NewManager(&fakeStore{productErr: errors.New("offline")}, &fakeFlag{}, "unlock")
	s = m.Start(ctx)
	assert.Equal(t, Failed, s.State)
	assert.ErrorIs(t, s.Err, model.ErrProductFetch)
}

func TestBuySetsFlag(t *testing.T) {
	flag := &fakeFlag{}
	store := &fakeStore{
		resp: ProductsResponse{Products: []Product{unlockProduct}},
		buy:  Transaction{ProductID: "unlock", State: TransactionPurchased},
	}
	m := NewManager(store, flag, "unlock")
	m.Start(context.Background())

	assert.Equal(t, Purchased, m.Buy(context.Background()).State)
	assert.True(t, flag.unlocked)
}

func TestFailedPurchaseFallsBackToLoaded(t *testing.T) {
	flag := &fakeFlag{}
	store := &fakeStore{
		resp:   ProductsResponse{Products: []Product{unlockProduct}},
		buyErr: errors.New("card declined"),
	}
	m := NewManager(store, flag, "unlock")
	m.Start(context.Background())

	s := m.Buy(context.Background())
	assert.Equal(t, Loaded, s.State)
	assert.False(t, flag.unlocked)
}

func TestBuyWithoutProduct(t *testing.T) {
	m := NewManager(&fakeStore{}, &fakeFlag{}, "unlock")
	s := m.Buy(context.Background())
	assert.Equal(t, Failed, s.State)
	assert.ErrorIs(t, s.Err, ErrNoProduct)
}

func TestDeferredAndRestore(t *testing.T) {
	flag := &fakeFlag{}
	store := &fakeStore{
		resp:    ProductsResponse{Products: []Product{unlockProduct}},
		buy:     Transaction{ProductID: "unlock", State: TransactionDeferred},
		restore: []Transaction{{ProductID: "unlock", State: TransactionRestored}},
	}
	m := NewManager(store, flag, "unlock")
	m.Start(context.Background())

	assert.Equal(t, Deferred, m.Buy(context.Background()).State)
	assert.False(t, flag.unlocked)

	assert.Equal(t, Purchased, m.Restore(context.Background()).State)
	assert.True(t, flag.unlocked)
}

func TestRestoreFailureWithoutProduct(t *testing.T) {
	store := &fakeStore{restore: []Transaction{{State: TransactionFailed, Error: "nothing to restore"}}}
	m := NewManager(store, &fakeFlag{}, "unlock")

	s := m.Restore(context.Background())
	assert.Equal(t, Failed, s.State)
	assert.EqualError(t, s.Err, "nothing to restore")
}

func TestLocalizedPrice(t *testing.T) {
	price := unlockProduct.LocalizedPrice(language.AmericanEnglish)
	assert.Contains(t, price, "$")
	assert.Contains(t, price, "4.99")

	yen := Product{PriceMinor: 600, Currency: "JPY"}.LocalizedPrice(language.Japanese)
	assert.Contains(t, yen, "600")

	bad := Product{PriceMinor: 100, Currency: "???"}.LocalizedPrice(language.English)
	assert.Contains(t, bad, "100")
}

func TestHTTPStorefront(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/store/products":
			assert.Equal(t, "unlock", r.URL.Query().Get("ids"))
			_ = json.NewEncoder(w).Encode(ProductsResponse{Products: []Product{unlockProduct}})
		case "/api/v1/store/purchases":
			if r.Header.Get("Authorization") != "Bearer tok" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(Transaction{ProductID: body["product_id"], State: TransactionPurchased})
		case "/api/v1/store/restore":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"transactions": []Transaction{{ProductID: "unlock", State: TransactionRestored}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	sf := NewHTTPStorefront(srv.URL+"/", "tok")

	resp, err := sf.Products(ctx, []string{"unlock"})
	require.NoError(t, err)
	assert.Equal(t, []Product{unlockProduct}, resp.Products)

	tx, err := sf.Buy(ctx, "unlock")
	require.NoError(t, err)
	assert.Equal(t, TransactionPurchased, tx.State)

	txs, err := sf.Restore(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, TransactionRestored, txs[0].State)

	_, err = NewHTTPStorefront(srv.URL, "").Buy(ctx, "unlock")
	assert.Error(t, err)
}
