package room

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"

	"mc21-server/internal/rng"
	"mc21-server/pkg/store"
	"mc21-server/pkg/table"
)

// PitBoss is responsible for dispatching players to tables
type PitBoss struct {
	store  store.Store
	clock  quartz.Clock
	random rng.Generator

	dealers    map[string]*Dealer
	lock       sync.Mutex
	connect    chan *Client
	disconnect chan *Client
}

// NewPitBoss returns a new dispatch object
func NewPitBoss(s store.Store, clock quartz.Clock, g rng.Generator) *PitBoss {
	return &PitBoss{
		store:      s,
		clock:      clock,
		random:     g,
		dealers:    make(map[string]*Dealer),
		connect:    make(chan *Client, 256),
		disconnect: make(chan *Client, 256),
	}
}

// StartShift starts the PitBoss run loop
func (p *PitBoss) StartShift() {
	go p.runLoop()
}

func (p *PitBoss) runLoop() {
	for {
		select {
		case client := <-p.connect:
			logrus.WithField("player", client.String()).Debug("client connected")
			p.DealerFor(client.tableUUID).AddClient(client)
		case client := <-p.disconnect:
			logrus.WithField("player", client.String()).Debug("client disconnected")

			p.lock.Lock()
			dealer, found := p.dealers[client.tableUUID]
			if found && dealer.RemoveClient(client) {
				dealer.EndShift()
				delete(p.dealers, client.tableUUID)
			}
			p.lock.Unlock()
		}
	}
}

// DealerFor returns the dealer running the table, creating one if needed
func (p *PitBoss) DealerFor(tableUUID string) *Dealer {
	p.lock.Lock()
	defer p.lock.Unlock()

	dealer, found := p.dealers[tableUUID]
	if !found {
		dealer = NewDealer(p, p.store, p.clock, p.random, tableUUID)
		dealer.StartShift()
		p.dealers[tableUUID] = dealer
	}

	return dealer
}

// ClientConnected is called when a client connects to the server
func (p *PitBoss) ClientConnected(client *Client) {
	p.connect <- client
}

// ClientDisconnected is called when a client disconnects from the server
func (p *PitBoss) ClientDisconnected(client *Client) {
	p.disconnect <- client
}

// CreateTable creates and persists a new table. Zero values for maxSeats and
// decks fall back to the table defaults.
func (p *PitBoss) CreateTable(ctx context.Context, name, hostID string, maxSeats, decks int) (*table.Table, error) {
	tbl := table.New(name, hostID, maxSeats)
	if decks > 0 {
		tbl.Decks = decks
	}

	raw, err := json.Marshal(tbl)
	if err != nil {
		return nil, err
	}

	if _, err := p.store.Put(ctx, TableKey(tbl.UUID), raw, 0); err != nil {
		return nil, err
	}

	return tbl, nil
}

// GetTable loads a table by UUID, or store.ErrNotFound
func (p *PitBoss) GetTable(ctx context.Context, tableUUID string) (*table.Table, error) {
	doc, err := p.store.Get(ctx, TableKey(tableUUID))
	if err != nil {
		return nil, err
	}

	var tbl table.Table
	if err := json.Unmarshal(doc.Value, &tbl); err != nil {
		return nil, err
	}

	return &tbl, nil
}

// ListTables returns every table, ordered by key
func (p *PitBoss) ListTables(ctx context.Context) ([]*table.Table, error) {
	docs, err := p.store.List(ctx, TableKey(""))
	if err != nil {
		return nil, err
	}

	tables := make([]*table.Table, 0, len(docs))
	for _, doc := range docs {
		var tbl table.Table
		if err := json.Unmarshal(doc.Value, &tbl); err != nil {
			return nil, err
		}

		tables = append(tables, &tbl)
	}

	return tables, nil
}
