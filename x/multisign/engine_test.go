package multisign

import (
	"context"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/iov-one/quorum/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx        context.Context
	db         quorum.CacheableKVStore
	engine     *Engine
	dispatcher *quorumtest.Dispatcher
	owners     []quorum.Address
}

func newFixture(t testing.TB, owners int, threshold uint32, autoExecute bool) *fixture {
	t.Helper()
	addrs := quorumtest.NewAddresses(owners)
	conf := NewConfig("treasury", addrs, threshold)
	conf.AutoExecute = autoExecute
	d := &quorumtest.Dispatcher{}
	e, err := NewEngine(conf, d)
	require.NoError(t, err)
	return &fixture{
		ctx:        context.Background(),
		db:         store.MemStore(),
		engine:     e,
		dispatcher: d,
		owners:     addrs,
	}
}

func (f *fixture) deposit(t testing.TB, amount uint64) {
	t.Helper()
	_, err := f.engine.Deposit(f.ctx, f.db, f.owners[0], amount)
	require.NoError(t, err)
}

func (f *fixture) submit(t testing.TB, dest quorum.Address, value uint64, payload []byte) []byte {
	t.Helper()
	id, _, err := f.engine.Submit(f.ctx, f.db, f.owners[0], dest, value, payload)
	require.NoError(t, err)
	return id
}

func (f *fixture) balance(t testing.TB) uint64 {
	t.Helper()
	b, err := f.engine.Balance(f.db)
	require.NoError(t, err)
	return b
}

func (f *fixture) tx(t testing.TB, id []byte) *Transaction {
	t.Helper()
	tx, err := f.engine.Transaction(f.db, id)
	require.NoError(t, err)
	return tx
}

func eventTypes(events []quorum.Event) []string {
	res := make([]string, len(events))
	for i, e := range events {
		res[i] = e.Type
	}
	return res
}

func TestNewEngine(t *testing.T) {
	owners := quorumtest.NewAddresses(4)

	e, err := NewEngine(NewConfig("treasury", owners, 3), &quorumtest.Dispatcher{})
	require.NoError(t, err)
	assert.Equal(t, 4, e.OwnerCount())
	assert.EqualValues(t, 3, e.Threshold())
	assert.Equal(t, VaultAddress("treasury"), e.Address())
	for _, o := range owners {
		assert.True(t, e.IsOwner(o))
	}
	assert.False(t, e.IsOwner(quorumtest.NewAddress()))

	_, err = NewEngine(NewConfig("treasury", owners, 5), &quorumtest.Dispatcher{})
	assert.True(t, ErrInvalidConfiguration.Is(err))
	_, err = NewEngine(NewConfig("", owners, 1), &quorumtest.Dispatcher{})
	assert.True(t, ErrInvalidConfiguration.Is(err))
	_, err = NewEngine(NewConfig("treasury", owners, 1), nil)
	assert.True(t, ErrInvalidConfiguration.Is(err))
}

func TestDeposit(t *testing.T) {
	f := newFixture(t, 3, 2, true)

	events, err := f.engine.Deposit(f.ctx, f.db, f.owners[1], 40)
	require.NoError(t, err)
	assert.EqualValues(t, 40, f.balance(t))
	require.Len(t, events, 1)
	assert.Equal(t, EventFundsDeposited, events[0].Type)
	depositor, _ := events[0].Attr("depositor")
	assert.Equal(t, f.owners[1].String(), depositor)
	amount, _ := events[0].Attr("amount")
	assert.Equal(t, "40", amount)

	_, err = f.engine.Deposit(f.ctx, f.db, f.owners[2], 2)
	require.NoError(t, err)
	assert.EqualValues(t, 42, f.balance(t))

	_, err = f.engine.Deposit(f.ctx, f.db, f.owners[0], 0)
	assert.True(t, ErrZeroValue.Is(err))

	events, err = f.engine.Deposit(f.ctx, f.db, quorumtest.NewAddress(), 10)
	assert.True(t, ErrNotAnOwner.Is(err))
	assert.Nil(t, events)
	assert.EqualValues(t, 42, f.balance(t))

	_, err = f.engine.Deposit(f.ctx, f.db, f.owners[0], ^uint64(0))
	assert.True(t, errors.ErrOverflow.Is(err))
	assert.EqualValues(t, 42, f.balance(t))
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, 3, 1, true)
	dest := quorumtest.NewAddress()

	id, events, err := f.engine.Submit(f.ctx, f.db, f.owners[1], dest, 7, []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, []string{EventTransactionCreated, EventTransactionSubmitted, EventTransactionConfirmed}, eventTypes(events))
	value, _ := events[0].Attr("value")
	assert.Equal(t, "7", value)
	proposer, _ := events[1].Attr("proposer")
	assert.Equal(t, f.owners[1].String(), proposer)
	confirmer, _ := events[2].Attr("confirmer")
	assert.Equal(t, f.owners[1].String(), confirmer)

	n, err := f.engine.ConfirmationCount(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// reaching the threshold on submission does not execute
	tx := f.tx(t, id)
	assert.Equal(t, Pending, tx.State())
	assert.Empty(t, f.dispatcher.Calls)

	_, _, err = f.engine.Submit(f.ctx, f.db, quorumtest.NewAddress(), dest, 7, nil)
	assert.True(t, ErrNotAnOwner.Is(err))
	_, _, err = f.engine.Submit(f.ctx, f.db, f.owners[0], f.engine.Address(), 7, nil)
	assert.True(t, ErrInvalidDestination.Is(err))
	_, _, err = f.engine.Submit(f.ctx, f.db, f.owners[0], dest, 0, nil)
	assert.True(t, ErrInvalidPayload.Is(err))

	all, err := f.engine.Ledger().All(f.db)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConfirmAndAutoExecute(t *testing.T) {
	f := newFixture(t, 4, 3, true)
	f.deposit(t, 100)
	dest := quorumtest.NewAddress()
	id := f.submit(t, dest, 60, []byte("pay"))

	events, err := f.engine.Confirm(f.ctx, f.db, f.owners[1], id)
	require.NoError(t, err)
	assert.Equal(t, []string{EventTransactionConfirmed}, eventTypes(events))
	assert.Equal(t, Pending, f.tx(t, id).State())

	_, err = f.engine.Confirm(f.ctx, f.db, f.owners[1], id)
	assert.True(t, ErrAlreadyConfirmed.Is(err))
	n, err := f.engine.ConfirmationCount(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err = f.engine.Confirm(f.ctx, f.db, f.owners[2], id)
	require.NoError(t, err)
	assert.Equal(t, []string{EventTransactionConfirmed, EventTransactionExecuted}, eventTypes(events))

	tx := f.tx(t, id)
	assert.Equal(t, Executed, tx.State())
	assert.Equal(t, []byte(dest), tx.Destination)
	assert.EqualValues(t, 60, tx.Value)
	assert.Equal(t, []byte("pay"), tx.Payload)
	assert.EqualValues(t, 40, f.balance(t))

	require.Len(t, f.dispatcher.Calls, 1)
	call := f.dispatcher.Calls[0]
	assert.Equal(t, f.engine.Address(), call.From)
	assert.Equal(t, dest, call.To)
	assert.EqualValues(t, 60, call.Value)

	_, err = f.engine.Confirm(f.ctx, f.db, f.owners[3], id)
	assert.True(t, ErrAlreadyExecuted.Is(err))
	_, err = f.engine.Execute(f.ctx, f.db, f.owners[3], id)
	assert.True(t, ErrAlreadyExecuted.Is(err))
	assert.Len(t, f.dispatcher.Calls, 1)
	assert.EqualValues(t, 40, f.balance(t))
}

func TestManualExecute(t *testing.T) {
	f := newFixture(t, 3, 2, false)
	f.deposit(t, 10)
	id := f.submit(t, quorumtest.NewAddress(), 10, nil)

	_, err := f.engine.Execute(f.ctx, f.db, f.owners[0], id)
	assert.True(t, ErrQuorumNotMet.Is(err))

	events, err := f.engine.Confirm(f.ctx, f.db, f.owners[1], id)
	require.NoError(t, err)
	assert.Equal(t, []string{EventTransactionConfirmed}, eventTypes(events))
	assert.Equal(t, Pending, f.tx(t, id).State())

	_, err = f.engine.Execute(f.ctx, f.db, quorumtest.NewAddress(), id)
	assert.True(t, ErrNotAnOwner.Is(err))
	_, err = f.engine.Execute(f.ctx, f.db, f.owners[2], []byte("unknown"))
	assert.True(t, ErrTransactionNotFound.Is(err))

	events, err = f.engine.Execute(f.ctx, f.db, f.owners[2], id)
	require.NoError(t, err)
	assert.Equal(t, []string{EventTransactionExecuted}, eventTypes(events))
	assert.EqualValues(t, 0, f.balance(t))
	assert.Equal(t, Executed, f.tx(t, id).State())
}

func TestExecuteInsufficientFunds(t *testing.T) {
	f := newFixture(t, 2, 2, true)
	f.deposit(t, 5)
	dest := quorumtest.NewAddress()
	id := f.submit(t, dest, 6, nil)

	_, err := f.engine.Confirm(f.ctx, f.db, f.owners[1], id)
	assert.True(t, ErrInsufficientFunds.Is(err))

	// the confirmation was rolled back together with the execution
	n, err := f.engine.ConfirmationCount(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, Pending, f.tx(t, id).State())
	assert.EqualValues(t, 5, f.balance(t))
	assert.Empty(t, f.dispatcher.Calls)

	f.deposit(t, 1)
	_, err = f.engine.Confirm(f.ctx, f.db, f.owners[1], id)
	require.NoError(t, err)
	assert.Equal(t, Executed, f.tx(t, id).State())
	assert.EqualValues(t, 0, f.balance(t))
}

func TestDispatchFailureRollsBack(t *testing.T) {
	cases := map[string]func(d *quorumtest.Dispatcher){
		"error": func(d *quorumtest.Dispatcher) { d.Err = errors.ErrUnauthorized.New("rejected") },
		"panic": func(d *quorumtest.Dispatcher) { d.Panic = "boom" },
	}

	for testName, setup := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 2, 2, false)
			f.deposit(t, 50)
			dest := quorumtest.NewAddress()
			id := f.submit(t, dest, 20, []byte("call"))
			_, err := f.engine.Confirm(f.ctx, f.db, f.owners[1], id)
			require.NoError(t, err)

			setup(f.dispatcher)
			events, err := f.engine.Execute(f.ctx, f.db, f.owners[0], id)
			require.Error(t, err)
			assert.True(t, ErrDispatchFailed.Is(err), "got %+v", err)
			assert.Nil(t, events)

			assert.EqualValues(t, 50, f.balance(t))
			assert.Equal(t, Pending, f.tx(t, id).State())
			written, err := f.db.Get(quorumtest.DispatchKey(dest))
			require.NoError(t, err)
			assert.Nil(t, written)

			// the failure is not permanent
			f.dispatcher.Err = nil
			f.dispatcher.Panic = nil
			_, err = f.engine.Execute(f.ctx, f.db, f.owners[1], id)
			require.NoError(t, err)
			assert.EqualValues(t, 30, f.balance(t))
			written, err = f.db.Get(quorumtest.DispatchKey(dest))
			require.NoError(t, err)
			assert.NotNil(t, written)
		})
	}
}

func TestDispatchEventsArePropagated(t *testing.T) {
	f := newFixture(t, 1, 1, true)
	f.dispatcher.Events = []quorum.Event{quorum.NewEvent("Transfer", "amount", uint64(1))}
	id := f.submit(t, quorumtest.NewAddress(), 0, []byte("call"))

	events, err := f.engine.Execute(f.ctx, f.db, f.owners[0], id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Transfer", EventTransactionExecuted}, eventTypes(events))
	assert.EqualValues(t, 0, f.balance(t))
}

func TestNonOwnerCausesNoStateChange(t *testing.T) {
	f := newFixture(t, 3, 2, true)
	f.deposit(t, 10)
	id := f.submit(t, quorumtest.NewAddress(), 5, nil)
	stranger := quorumtest.NewAddress()

	snapshot := func() []quorum.Model {
		it, err := f.db.Iterator(nil, nil)
		require.NoError(t, err)
		defer it.Close()
		var res []quorum.Model
		for ; it.Valid(); require.NoError(t, it.Next()) {
			res = append(res, quorum.Model{Key: it.Key(), Value: it.Value()})
		}
		return res
	}
	before := snapshot()

	_, _, err := f.engine.Submit(f.ctx, f.db, stranger, quorumtest.NewAddress(), 1, nil)
	assert.True(t, ErrNotAnOwner.Is(err))
	_, err = f.engine.Confirm(f.ctx, f.db, stranger, id)
	assert.True(t, ErrNotAnOwner.Is(err))
	_, err = f.engine.Execute(f.ctx, f.db, stranger, id)
	assert.True(t, ErrNotAnOwner.Is(err))

	assert.Equal(t, before, snapshot())
}

func TestFourOwnersThresholdThree(t *testing.T) {
	f := newFixture(t, 4, 3, true)
	f.deposit(t, 1000)
	dest := quorumtest.NewAddress()

	id := f.submit(t, dest, 250, nil)
	counts := []int{1}
	for _, o := range f.owners[1:3] {
		_, err := f.engine.Confirm(f.ctx, f.db, o, id)
		require.NoError(t, err)
		n, err := f.engine.ConfirmationCount(f.db, id)
		require.NoError(t, err)
		counts = append(counts, n)
	}
	assert.Equal(t, []int{1, 2, 3}, counts)

	tx := f.tx(t, id)
	assert.Equal(t, Executed, tx.State())
	assert.Equal(t, []quorum.Address{f.owners[0], f.owners[1], f.owners[2]}, tx.Confirmers())
	assert.EqualValues(t, 750, f.balance(t))

	pending, err := f.engine.Ledger().Pending(f.db)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestThresholdOneNeedsExplicitExecute(t *testing.T) {
	f := newFixture(t, 3, 1, true)
	f.deposit(t, 10)
	id := f.submit(t, quorumtest.NewAddress(), 10, nil)
	assert.Equal(t, Pending, f.tx(t, id).State())

	events, err := f.engine.Confirm(f.ctx, f.db, f.owners[1], id)
	require.NoError(t, err)
	assert.Equal(t, []string{EventTransactionConfirmed}, eventTypes(events))
	assert.Equal(t, Pending, f.tx(t, id).State())
	assert.Empty(t, f.dispatcher.Calls)
	assert.EqualValues(t, 10, f.balance(t))

	_, err = f.engine.Execute(f.ctx, f.db, f.owners[2], id)
	require.NoError(t, err)
	assert.Equal(t, Executed, f.tx(t, id).State())
	assert.Len(t, f.dispatcher.Calls, 1)
	assert.EqualValues(t, 0, f.balance(t))
}
