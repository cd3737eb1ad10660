package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/ledger"
	"github.com/example/storefront/pkg/media"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/notify"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gateway is a payment gateway that mints sequential intent ids.
type Gateway struct {
	mu      sync.Mutex
	Key     string
	Err     error
	Intents []payment.Intent
}

func NewGateway(secret string) *Gateway {
	return &Gateway{Key: secret}
}

func (g *Gateway) CreateOrder(_ context.Context, amount decimal.Decimal, receipt string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	intent := payment.Intent{
		ID:       fmt.Sprintf("order_test%d", len(g.Intents)+1),
		Entity:   "order",
		Amount:   payment.ToSubunits(amount),
		Currency: "INR",
		Receipt:  receipt,
		Status:   "created",
	}
	g.Intents = append(g.Intents, intent)
	return &intent, nil
}

func (g *Gateway) Secret() string { return g.Key }

// ImageHost records uploads and destroys.
type ImageHost struct {
	mu         sync.Mutex
	UploadErr  error
	DestroyErr error
	Uploaded   []media.Image
	Folders    []string
	Destroyed  []string
}

func (h *ImageHost) Upload(_ context.Context, file io.Reader, folder, _ string) (*media.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.UploadErr != nil {
		return nil, h.UploadErr
	}
	if _, err := io.ReadAll(file); err != nil {
		return nil, err
	}
	n := len(h.Uploaded) + 1
	img := media.Image{
		URL:      fmt.Sprintf("https://img.test/%s/%d.jpg", folder, n),
		PublicID: fmt.Sprintf("%s/%d", folder, n),
	}
	h.Uploaded = append(h.Uploaded, img)
	h.Folders = append(h.Folders, folder)
	return &img, nil
}

func (h *ImageHost) Destroy(_ context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.DestroyErr != nil {
		return h.DestroyErr
	}
	h.Destroyed = append(h.Destroyed, publicID)
	return nil
}

// Push is one recorded notification.
type Push struct {
	Token   string
	Message notify.Message
}

// Pusher records pushes; tokens listed in Fail are rejected.
type Pusher struct {
	mu   sync.Mutex
	Fail map[string]bool
	Sent []Push
}

func (p *Pusher) Push(_ context.Context, token string, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if token == "" {
		return nil
	}
	if p.Fail[token] {
		return fmt.Errorf("push to %s rejected", token)
	}
	p.Sent = append(p.Sent, Push{Token: token, Message: msg})
	return nil
}

func (p *Pusher) Tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Sent))
	for i, s := range p.Sent {
		out[i] = s.Token
	}
	return out
}

type Publisher struct {
	mu     sync.Mutex
	Err    error
	Events []events.OrderEvent
}

func (p *Publisher) PublishOrder(_ context.Context, ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, ev)
	return nil
}

type Ledger struct {
	mu   sync.Mutex
	Err  error
	Rows []ledger.PaymentTransaction
}

func (l *Ledger) Record(_ context.Context, tx *ledger.PaymentTransaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	l.Rows = append(l.Rows, *tx)
	return nil
}

type AuditLog struct {
	mu      sync.Mutex
	Entries []repository.AuditLog
}

func (a *AuditLog) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, *log)
	return nil
}

func (a *AuditLog) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Action
	}
	return out
}

// Locker hands out named locks; Err simulates an unreachable backend.
type Locker struct {
	mu   sync.Mutex
	Err  error
	held map[string]bool
}

func (l *Locker) AcquireLock(_ context.Context, name string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[name] {
		return nil, repository.ErrLockHeld
	}
	l.held[name] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, name)
	}, nil
}

// Hold marks name as locked by someone else.
func (l *Locker) Hold(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	l.held[name] = true
}

// SettingsCache is a map-backed settings cache.
type SettingsCache struct {
	mu      sync.Mutex
	entries map[primitive.ObjectID]models.Setting
	Hits    int
}

func (c *SettingsCache) CacheSettings(_ context.Context, s *models.Setting) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[primitive.ObjectID]models.Setting{}
	}
	c.entries[s.StoreID] = *s
	return nil
}

func (c *SettingsCache) CachedSettings(_ context.Context, storeID primitive.ObjectID) (*models.Setting, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[storeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Hits++
	return &s, nil
}

func (c *SettingsCache) InvalidateSettings(_ context.Context, storeID primitive.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, storeID)
	return nil
}
