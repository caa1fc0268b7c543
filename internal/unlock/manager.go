package unlock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
)

// State is the phase of the purchase flow
type State int

const (
	Loading   State = iota // Product request started, no answer yet
	Loaded                 // Product available for purchase
	Failed                 // Product request or purchase failed
	Purchased              // Full version unlocked
	Deferred               // Purchase waits for someone else's approval
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	case Purchased:
		return "purchased"
	case Deferred:
		return "deferred"
	default:
		return "loading"
	}
}

// Store errors
var (
	ErrMissingProduct     = fmt.Errorf("%w: no product returned", model.ErrProductFetch)
	ErrInvalidIdentifiers = fmt.Errorf("%w: invalid product identifiers", model.ErrProductFetch)
	ErrNoProduct          = errors.New("no product loaded")
)

// RequestState is the current state with its payload
type RequestState struct {
	State   State
	Product *Product // Set when Loaded
	Err     error    // Set when Failed
}

// Flag is the persistent full-version switch
type Flag interface {
	FullVersionUnlocked(ctx context.Context) bool
	SetFullVersionUnlocked(ctx context.Context, unlocked bool) error
}

// Manager loads the unlock product and applies purchase results
type Manager struct {
	store     Storefront
	flag      Flag
	productID string

	mu       sync.Mutex
	state    RequestState
	products []Product
	onChange func(RequestState)
}

// NewManager creates a manager in the Loading state
func NewManager(store Storefront, flag Flag, productID string) *Manager {
	return &Manager{
		store:     store,
		flag:      flag,
		productID: productID,
		state:     RequestState{State: Loading},
	}
}

// OnChange registers a callback for state transitions
func (m *Manager) OnChange(fn func(RequestState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// State returns the current request state
func (m *Manager) State() RequestState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s RequestState) {
	m.mu.Lock()
	m.state = s
	fn := m.onChange
	m.mu.Unlock()

	logger.Debug("Unlock state changed", logger.F("state", s.State.String()))
	if fn != nil {
		fn(s)
	}
}

// Start requests the unlock product. Nothing is fetched once the full version is unlocked.
func (m *Manager) Start(ctx context.Context) RequestState {
	if m.flag.FullVersionUnlocked(ctx) {
		m.setState(RequestState{State: Purchased})
		return m.State()
	}

	m.setState(RequestState{State: Loading})
	resp, err := m.store.Products(ctx, []string{m.productID})
	if err != nil {
		m.setState(RequestState{State: Failed, Err: fmt.Errorf("%w: %v", model.ErrProductFetch, err)})
		return m.State()
	}

	m.mu.Lock()
	m.products = resp.Products
	m.mu.Unlock()

	if len(resp.Products) == 0 {
		m.setState(RequestState{State: Failed, Err: ErrMissingProduct})
		return m.State()
	}
	if len(resp.InvalidIDs) > 0 {
		logger.Warn("Received invalid product identifiers", logger.F("ids", resp.InvalidIDs))
		m.setState(RequestState{State: Failed, Err: ErrInvalidIdentifiers})
		return m.State()
	}

	product := resp.Products[0]
	m.setState(RequestState{State: Loaded, Product: &product})
	return m.State()
}

// Buy purchases the loaded product
func (m *Manager) Buy(ctx context.Context) RequestState {
	product, ok := m.firstProduct()
	if !ok {
		m.setState(RequestState{State: Failed, Err: ErrNoProduct})
		return m.State()
	}

	tx, err := m.store.Buy(ctx, product.ID)
	if err != nil {
		tx = Transaction{ProductID: product.ID, State: TransactionFailed, Error: err.Error()}
	}
	m.apply(ctx, []Transaction{tx})
	return m.State()
}

// Restore re-applies earlier purchases
func (m *Manager) Restore(ctx context.Context) RequestState {
	txs, err := m.store.Restore(ctx)
	if err != nil {
		txs = []Transaction{{State: TransactionFailed, Error: err.Error()}}
	}
	m.apply(ctx, txs)
	return m.State()
}

func (m *Manager) apply(ctx context.Context, txs []Transaction) {
	for _, tx := range txs {
		switch tx.State {
		case TransactionPurchased, TransactionRestored:
			if err := m.flag.SetFullVersionUnlocked(ctx, true); err != nil {
				logger.Error("Failed to store unlock", logger.F("error", err))
			}
			m.setState(RequestState{State: Purchased})

		case TransactionFailed:
			if product, ok := m.firstProduct(); ok {
				m.setState(RequestState{State: Loaded, Product: &product})
			} else {
				m.setState(RequestState{State: Failed, Err: tx.Err()})
			}

		case TransactionDeferred:
			m.setState(RequestState{State: Deferred})
		}
	}
}

func (m *Manager) firstProduct() (Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.products) == 0 {
		return Product{}, false
	}
	return m.products[0], true
}
