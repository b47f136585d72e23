package room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mc21-server/internal/rng"
	"mc21-server/pkg/deck"
	"mc21-server/pkg/model"
	"mc21-server/pkg/store"
	"mc21-server/pkg/table"
)

func newTestPitBoss(s store.Store) *PitBoss {
	return NewPitBoss(s, quartz.NewReal(), rng.NewSeeded(1))
}

func newTestClient(playerID string) *Client {
	player := &model.Player{ID: playerID, Email: playerID + "@example.domain"}
	return NewClient(nil, player, "test-table")
}

func nextResponse(t *testing.T, c *Client) *Response {
	t.Helper()

	select {
	case msg := <-c.SendChan():
		res, ok := msg.(*Response)
		require.True(t, ok)
		return res
	case <-time.After(time.Second):
		t.Fatal("no response received")
		return nil
	}
}

func TestDealer_fullRound(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := store.NewMemory()
	p := newTestPitBoss(s)

	tbl, err := p.CreateTable(ctx, "main floor", "host-1", 2, 0)
	require.NoError(t, err)

	d := p.DealerFor(tbl.UUID)
	defer d.EndShift()

	_, err = d.Join(ctx, "S1", "host-1", "Alice")
	a.NoError(err)

	_, err = d.Join(ctx, "S2", "player-2", "")
	a.NoError(err)

	_, err = d.StartRound(ctx)
	a.NoError(err)

	_, err = d.PlaceBet(ctx, "S1", "host-1", 10)
	a.NoError(err)

	_, err = d.PlaceBet(ctx, "S2", "player-2", 5)
	a.NoError(err)

	updated, err := d.DealInitial(ctx)
	a.NoError(err)
	a.Equal(table.PhasePlayerTurns, updated.Phase)
	a.Len(updated.Seats["S1"].Hand, 2)
	a.Len(updated.DealerHand, 2)

	// anonymous joiner got a random display name
	a.NotEmpty(updated.Seats["S2"].DisplayName)

	// the table persisted between calls
	loaded, err := p.GetTable(ctx, tbl.UUID)
	a.NoError(err)
	a.Equal(table.PhasePlayerTurns, loaded.Phase)
}

func TestDealer_seatOwnership(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := store.NewMemory()
	p := newTestPitBoss(s)

	tbl, err := p.CreateTable(ctx, "main floor", "host-1", 2, 0)
	require.NoError(t, err)

	d := p.DealerFor(tbl.UUID)
	defer d.EndShift()

	_, err = d.Join(ctx, "S1", "host-1", "Alice")
	a.NoError(err)

	_, err = d.StartRound(ctx)
	a.NoError(err)

	_, err = d.PlaceBet(ctx, "S1", "someone-else", 10)
	a.Equal(ErrNotYourSeat, err)

	_, err = d.PlaceBet(ctx, "S9", "host-1", 10)
	a.ErrorIs(err, table.ErrUnknownSeat)
}

// putPlayerTurnsTable stores a table mid-round with the given shoe so a test
// can script the remaining draws
func putPlayerTurnsTable(t *testing.T, s store.Store, shoe string) *table.Table {
	t.Helper()

	tbl := table.New("scripted", "host-1", 2)
	tbl.Phase = table.PhasePlayerTurns
	tbl.RoundID = "round-1"
	tbl.Shoe = &deck.Shoe{Cards: deck.CardsFromString(shoe), CutIndex: 0}
	tbl.DealerHand = deck.CardsFromString("10c,10d")

	for i, seatID := range []string{"S1", "S2"} {
		seat := tbl.Seats[seatID]
		seat.OccupantID = []string{"host-1", "player-2"}[i]
		seat.DisplayName = seat.OccupantID
		seat.Bet = 5
		seat.Hand = deck.CardsFromString("2c,3c")
		seat.State = table.SeatPlaying
	}

	raw, err := json.Marshal(tbl)
	require.NoError(t, err)

	_, err = s.Put(context.Background(), TableKey(tbl.UUID), raw, 0)
	require.NoError(t, err)

	return tbl
}

func TestDealer_concurrentHitsAreSerialized(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := store.NewMemory()
	p := newTestPitBoss(s)

	// a single card remains; only one of the two hits can draw it
	tbl := putPlayerTurnsTable(t, s, "4c")

	d := p.DealerFor(tbl.UUID)
	defer d.EndShift()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, req := range []struct{ seatID, occupantID string }{
		{"S1", "host-1"},
		{"S2", "player-2"},
	} {
		wg.Add(1)
		go func(i int, seatID, occupantID string) {
			defer wg.Done()
			_, errs[i] = d.Hit(ctx, seatID, occupantID)
		}(i, req.seatID, req.occupantID)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			a.ErrorIs(err, deck.ErrInsufficientCards)
			failures++
		}
	}
	a.Equal(1, failures)

	loaded, err := p.GetTable(ctx, tbl.UUID)
	a.NoError(err)

	cards := len(loaded.Seats["S1"].Hand) + len(loaded.Seats["S2"].Hand)
	a.Equal(5, cards)
	a.Equal(0, loaded.Shoe.CardsLeft())
}

// conflictStore always loses the compare-and-swap
type conflictStore struct {
	store.Store
}

func (c *conflictStore) Put(ctx context.Context, key string, value json.RawMessage, version int64) (int64, error) {
	if version > 0 {
		return 0, store.ErrVersionConflict
	}

	return c.Store.Put(ctx, key, value, version)
}

func TestDealer_concurrentModification(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := &conflictStore{Store: store.NewMemory()}
	p := newTestPitBoss(s)

	tbl, err := p.CreateTable(ctx, "main floor", "host-1", 2, 0)
	require.NoError(t, err)

	d := p.DealerFor(tbl.UUID)
	defer d.EndShift()

	_, err = d.Join(ctx, "S1", "host-1", "Alice")
	a.Equal(ErrConcurrentModification, err)
}

func TestDealer_tableBusy(t *testing.T) {
	a := assert.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := store.NewMemory()
	mockClock := quartz.NewMock(t)
	trap := mockClock.Trap().NewTimer()
	defer trap.Close()

	p := NewPitBoss(s, mockClock, rng.NewSeeded(1))

	tbl, err := p.CreateTable(ctx, "main floor", "host-1", 2, 0)
	require.NoError(t, err)

	// never started, so nothing drains the action queue
	d := NewDealer(p, s, mockClock, rng.NewSeeded(1), tbl.UUID)
	for i := 0; i < cap(d.actions); i++ {
		d.actions <- func() {}
	}

	done := make(chan error, 1)
	go func() {
		_, err := d.Update(ctx, func(t *table.Table) error { return nil })
		done <- err
	}()

	call := trap.MustWait(ctx)
	call.MustRelease(ctx)
	mockClock.Advance(admitTimeout).MustWait(ctx)

	a.Equal(ErrTableBusy, <-done)
}

func TestDealer_receivedMessage(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := store.NewMemory()
	p := newTestPitBoss(s)

	tbl, err := p.CreateTable(ctx, "main floor", "host-1", 2, 0)
	require.NoError(t, err)

	d := p.DealerFor(tbl.UUID)
	defer d.EndShift()

	client := newTestClient("host-1")
	client.dealer = d

	d.ReceivedMessage(client, &PayloadIn{Action: "join", SeatID: "S1", Context: "c1"})
	res := nextResponse(t, client)
	a.Equal("status", res.Key)
	a.Equal("c1", res.Context)

	d.ReceivedMessage(client, &PayloadIn{Action: "hit", SeatID: "S1", Context: "c2"})
	res = nextResponse(t, client)
	a.Equal("error", res.Key)
	a.Equal("c2", res.Context)

	d.ReceivedMessage(client, &PayloadIn{Action: "bogus", Context: "c3"})
	res = nextResponse(t, client)
	a.Equal("error", res.Key)
}
