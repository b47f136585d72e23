package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"

	"mc21-server/internal/rng"
	"mc21-server/internal/util"
	"mc21-server/pkg/store"
	"mc21-server/pkg/table"
)

// admitTimeout is how long a caller waits for a spot in the dealer's run loop
// before giving up
const admitTimeout = 3 * time.Second

// maxConflictRetries bounds how many compare-and-swap races a single update
// will absorb before failing
const maxConflictRetries = 5

// ErrTableBusy is returned when the table cannot take the request in time
var ErrTableBusy = errors.New("table is busy, try again")

// ErrConcurrentModification is returned when an update keeps losing the
// compare-and-swap race against other writers
var ErrConcurrentModification = errors.New("table was modified concurrently, try again")

// ErrNotYourSeat is returned when a player acts on a seat they do not occupy
var ErrNotYourSeat = errors.New("seat is occupied by another player")

// TableKey returns the document key for a table
func TableKey(tableUUID string) string {
	return "tables/" + tableUUID
}

// Dealer runs a single table. All table writes funnel through its run loop,
// so within one process updates are serialized; the document store's
// compare-and-swap covers writers in other processes.
type Dealer struct {
	pitBoss   *PitBoss
	store     store.Store
	clock     quartz.Clock
	random    rng.Generator
	tableUUID string

	clients map[*Client]bool
	lock    sync.RWMutex

	actions      chan func()
	stateChanged chan struct{}
	close        chan bool
	cancelSub    context.CancelFunc
}

// NewDealer creates a new dealer object
// This is called from a blocking state, so it needs to return quickly
func NewDealer(pitBoss *PitBoss, s store.Store, clock quartz.Clock, g rng.Generator, tableUUID string) *Dealer {
	return &Dealer{
		pitBoss:      pitBoss,
		store:        s,
		clock:        clock,
		random:       g,
		tableUUID:    tableUUID,
		clients:      make(map[*Client]bool),
		actions:      make(chan func(), 64),
		stateChanged: make(chan struct{}, 64),
		close:        make(chan bool),
	}
}

// Clients will return a slice of connected (at the time) clients
func (d *Dealer) Clients() []*Client {
	d.lock.RLock()
	defer d.lock.RUnlock()

	clients := make([]*Client, 0, len(d.clients))
	for client := range d.clients {
		clients = append(clients, client)
	}

	return clients
}

// StartShift starts the run loop and the change feed
func (d *Dealer) StartShift() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancelSub = cancel

	events, err := d.store.Subscribe(ctx, TableKey(d.tableUUID))
	if err != nil {
		logrus.WithField("uuid", d.tableUUID).WithError(err).Error("could not subscribe to table changes")
		events = nil
	}

	go d.runLoop(events)
}

func (d *Dealer) runLoop(events <-chan store.Event) {
	log := logrus.WithField("uuid", d.tableUUID)

	log.Debug("creating dealer run loop")
	for {
		select {
		case fn := <-d.actions:
			fn()
		case <-d.stateChanged:
			d.sendState()
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}

			d.sendState()
		case <-d.close:
			log.Debug("terminating dealer run loop")
			return
		}
	}
}

// AddClient adds a client
// This method must return quickly
func (d *Dealer) AddClient(client *Client) {
	d.lock.Lock()
	client.dealer = d
	d.clients[client] = true
	d.lock.Unlock()

	d.signalStateChanged()
}

// RemoveClient removes a client
// This method must return quickly
func (d *Dealer) RemoveClient(client *Client) (lastClient bool) {
	d.lock.Lock()
	delete(d.clients, client)
	nClients := len(d.clients)
	d.lock.Unlock()

	return nClients == 0
}

// EndShift is called when the dealer is no longer needed
func (d *Dealer) EndShift() {
	d.cancelSub()
	close(d.close)
}

func (d *Dealer) signalStateChanged() {
	select {
	case d.stateChanged <- struct{}{}:
	default:
	}
}

// NOTE: must only be called from the run loop
func (d *Dealer) sendState() {
	tbl, err := d.loadTable(context.Background())
	if err != nil {
		logrus.WithField("uuid", d.tableUUID).WithError(err).Error("could not load table")
		return
	}

	res := &Response{
		Key:  "state",
		Data: tbl.PublicState(),
	}

	for _, client := range d.Clients() {
		if !client.Send(res) {
			logrus.WithField("client", client.String()).Warn("dropped state message")
		}
	}
}

func (d *Dealer) loadTable(ctx context.Context) (*table.Table, error) {
	doc, err := d.store.Get(ctx, TableKey(d.tableUUID))
	if err != nil {
		return nil, err
	}

	var tbl table.Table
	if err := json.Unmarshal(doc.Value, &tbl); err != nil {
		return nil, err
	}

	return &tbl, nil
}

// Update loads the table, applies mutate, and commits the result with a
// compare-and-swap. The work happens in the dealer's run loop; callers that
// cannot be admitted within admitTimeout get ErrTableBusy. On any error the
// in-memory table is discarded, never persisted.
func (d *Dealer) Update(ctx context.Context, mutate func(t *table.Table) error) (*table.Table, error) {
	type result struct {
		tbl *table.Table
		err error
	}

	done := make(chan result, 1)
	timer := d.clock.NewTimer(admitTimeout)
	defer timer.Stop()

	job := func() {
		tbl, err := d.apply(ctx, mutate)
		done <- result{tbl: tbl, err: err}
	}

	select {
	case d.actions <- job:
	case <-timer.C:
		return nil, ErrTableBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-done:
		return res.tbl, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NOTE: must only be called from the run loop
func (d *Dealer) apply(ctx context.Context, mutate func(t *table.Table) error) (*table.Table, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		doc, err := d.store.Get(ctx, TableKey(d.tableUUID))
		if err != nil {
			return nil, err
		}

		var tbl table.Table
		if err := json.Unmarshal(doc.Value, &tbl); err != nil {
			return nil, err
		}

		if err := mutate(&tbl); err != nil {
			return nil, err
		}

		tbl.Updated = time.Now()

		raw, err := json.Marshal(&tbl)
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := d.store.Put(ctx, TableKey(d.tableUUID), raw, doc.Version); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}

			return nil, err
		}

		return &tbl, nil
	}

	return nil, ErrConcurrentModification
}

func ownedSeat(t *table.Table, seatID, occupantID string) error {
	seat, ok := t.Seats[seatID]
	if !ok {
		return fmt.Errorf("%w: %s", table.ErrUnknownSeat, seatID)
	}

	if seat.OccupantID != occupantID {
		return ErrNotYourSeat
	}

	return nil
}

// Join seats the player. An empty display name gets a random one.
func (d *Dealer) Join(ctx context.Context, seatID, occupantID, displayName string) (*table.Table, error) {
	if displayName == "" {
		displayName = util.GetRandomName()
	}

	return d.Update(ctx, func(t *table.Table) error {
		return t.Join(seatID, occupantID, displayName)
	})
}

// Leave vacates the player's own seat
func (d *Dealer) Leave(ctx context.Context, seatID, occupantID string) (*table.Table, error) {
	return d.Update(ctx, func(t *table.Table) error {
		if err := ownedSeat(t, seatID, occupantID); err != nil {
			return err
		}

		return t.Leave(seatID)
	})
}

// StartRound opens the betting phase
func (d *Dealer) StartRound(ctx context.Context) (*table.Table, error) {
	return d.Update(ctx, func(t *table.Table) error {
		return t.StartRound()
	})
}

// PlaceBet places a bet for the player's own seat
func (d *Dealer) PlaceBet(ctx context.Context, seatID, occupantID string, amount int) (*table.Table, error) {
	return d.Update(ctx, func(t *table.Table) error {
		if err := ownedSeat(t, seatID, occupantID); err != nil {
			return err
		}

		return t.PlaceBet(seatID, amount)
	})
}

// DealInitial deals the opening hands
func (d *Dealer) DealInitial(ctx context.Context) (*table.Table, error) {
	return d.Update(ctx, func(t *table.Table) error {
		return t.DealInitial(d.random)
	})
}

// Hit draws a card for the player's own seat
func (d *Dealer) Hit(ctx context.Context, seatID, occupantID string) (*table.Table, error) {
	return d.Update(ctx, func(t *table.Table) error {
		if err := ownedSeat(t, seatID, occupantID); err != nil {
			return err
		}

		return t.Hit(seatID)
	})
}

// Stand locks the player's own hand
func (d *Dealer) Stand(ctx context.Context, seatID, occupantID string) (*table.Table, error) {
	return d.Update(ctx, func(t *table.Table) error {
		if err := ownedSeat(t, seatID, occupantID); err != nil {
			return err
		}

		return t.Stand(seatID)
	})
}

// DealerTurn plays out the dealer hand and then settles the round. The two
// commits are separate so subscribers observe the settling phase.
func (d *Dealer) DealerTurn(ctx context.Context) (*table.Table, error) {
	if _, err := d.Update(ctx, func(t *table.Table) error {
		return t.DealerTurn(d.random)
	}); err != nil {
		return nil, err
	}

	return d.Update(ctx, func(t *table.Table) error {
		return t.Settle()
	})
}

// ReceivedMessage is called when a client sends a message to the server
func (d *Dealer) ReceivedMessage(c *Client, msg *PayloadIn) {
	ctx := context.Background()

	var err error
	switch msg.Action {
	case "join":
		_, err = d.Join(ctx, msg.SeatID, c.player.ID, c.player.DisplayName)
	case "leave":
		_, err = d.Leave(ctx, msg.SeatID, c.player.ID)
	case "startRound":
		_, err = d.StartRound(ctx)
	case "bet":
		_, err = d.PlaceBet(ctx, msg.SeatID, c.player.ID, msg.Amount)
	case "deal":
		_, err = d.DealInitial(ctx)
	case "hit":
		_, err = d.Hit(ctx, msg.SeatID, c.player.ID)
	case "stand":
		_, err = d.Stand(ctx, msg.SeatID, c.player.ID)
	case "dealerTurn":
		_, err = d.DealerTurn(ctx)
	default:
		logrus.WithField("msg", msg).Warn("unknown message")
		err = fmt.Errorf("unknown action: %s", msg.Action)
	}

	if err != nil {
		c.Send(newErrorResponse(msg.Context, err))
		return
	}

	c.Send(OK(msg.Context))
}
