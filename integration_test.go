package storagep2p_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/parallel"
	"github.com/outofforest/qa"
	"github.com/outofforest/storagep2p"
	"github.com/outofforest/storagep2p/fuzz"
	"github.com/outofforest/storagep2p/memstate"
	"github.com/outofforest/storagep2p/memstorage"
	"github.com/outofforest/storagep2p/wire"
)

func fixedAddr(t *testing.T, b byte) wire.Address {
	t.Helper()
	buf := make([]byte, 24)
	for i := range buf {
		buf[i] = b
	}
	a, err := wire.NewPredefinedAddress(buf)
	require.NoError(t, err)
	return a
}

// Scenario 1: basic exchange.
func TestBasicExchange(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	storage := memstorage.New()
	statesA := memstate.New()
	statesB := memstate.New()

	a := fixedAddr(t, 0x01)
	b := fixedAddr(t, 0x02)
	connAB := wire.ConnectionID{Local: a, Remote: b}
	connBA := wire.ConnectionID{Local: b, Remote: a}

	socketA := storagep2p.New(statesA, storage)
	socketB := storagep2p.New(statesB, storage)

	requireT.NoError(socketA.Send(ctx, connAB, []byte("hello")))

	stateA, err := statesA.Load(ctx, connAB)
	requireT.NoError(err)
	requireT.Equal(uint64(1), stateA.Tx)

	name := wire.Encode(wire.MessageHeader{Sender: a, Receiver: b, Counter: 0})
	stored, err := storage.Read(ctx, name)
	requireT.NoError(err)
	requireT.Equal([]byte("hello"), stored)

	msg, err := socketB.Receive(ctx, connBA)
	requireT.NoError(err)
	requireT.Equal([]byte("hello"), msg)

	stateB, err := statesB.Load(ctx, connBA)
	requireT.NoError(err)
	requireT.Equal(uint64(1), stateB.Rx)

	names, err := storage.List(ctx)
	requireT.NoError(err)
	requireT.Empty(names)
}

// Scenario 2: retry under injected error rate.
func TestRetryUnderInjectedErrors(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	backing := memstorage.New()
	faulty := fuzz.NewStorage(backing, 0.1, 42)
	states := memstate.New()

	a := fixedAddr(t, 0x01)
	b := fixedAddr(t, 0x02)
	conn := wire.ConnectionID{Local: a, Remote: b}

	sender := storagep2p.NewSender(conn, states, faulty)

	var err error
	for attempt := 0; attempt < 1000; attempt++ {
		err = sender.Send(ctx, []byte("m1"))
		if err == nil {
			break
		}
	}
	requireT.NoError(err)

	state, err := states.Load(ctx, conn)
	requireT.NoError(err)
	requireT.Equal(uint64(1), state.Tx)

	name := wire.Encode(wire.MessageHeader{Sender: a, Receiver: b, Counter: 0})
	data, err := backing.Read(ctx, name)
	requireT.NoError(err)
	requireT.Equal([]byte("m1"), data)

	names, err := backing.List(ctx)
	requireT.NoError(err)
	requireT.Len(names, 1)
}

// Scenario 3: out-of-order availability, in-order delivery.
func TestOutOfOrderAvailabilityInOrderDelivery(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	storage := memstorage.New()
	statesA := memstate.New()
	statesB := memstate.New()

	a := fixedAddr(t, 0x01)
	b := fixedAddr(t, 0x02)
	connAB := wire.ConnectionID{Local: a, Remote: b}
	connBA := wire.ConnectionID{Local: b, Remote: a}

	sender := storagep2p.NewSender(connAB, statesA, storage)
	receiver := storagep2p.NewReceiver(connBA, statesB, storage)

	requireT.NoError(sender.Send(ctx, []byte("m0")))
	requireT.NoError(sender.Send(ctx, []byte("m1")))
	requireT.NoError(sender.Send(ctx, []byte("m2")))

	m, err := receiver.Receive(ctx)
	requireT.NoError(err)
	requireT.Equal([]byte("m0"), m)

	peeked, err := receiver.Peek(ctx, 0)
	requireT.NoError(err)
	requireT.Equal([]byte("m1"), peeked)

	peeked, err = receiver.Peek(ctx, 1)
	requireT.NoError(err)
	requireT.Equal([]byte("m2"), peeked)

	m, err = receiver.Receive(ctx)
	requireT.NoError(err)
	requireT.Equal([]byte("m1"), m)

	m, err = receiver.Receive(ctx)
	requireT.NoError(err)
	requireT.Equal([]byte("m2"), m)

	_, err = receiver.Receive(ctx)
	requireT.ErrorIs(err, storagep2p.ErrNotFound)
}

// Scenario 4: concurrent two-way exchange across a fully meshed set of
// endpoints, one goroutine per client spawned on a qa group.
func TestConcurrentMesh(t *testing.T) {
	requireT := require.New(t)

	ctx := qa.NewContext(t)
	group := qa.NewGroup(ctx, t)

	const (
		numClients     = 7
		iterations     = 50
		maxMsgsPerIter = 7
	)

	storage := memstorage.New()
	addrs := make([]wire.Address, numClients)
	states := make([]*memstate.Store, numClients)
	for i := range addrs {
		addrs[i] = fixedAddr(t, byte(0x10+i))
		states[i] = memstate.New()
	}

	for i := 0; i < numClients; i++ {
		i := i
		group.Spawn(fmt.Sprintf("client-%d", i), parallel.Fail, func(ctx context.Context) error {
			rnd := rand.New(rand.NewSource(int64(i))) //nolint:gosec

			for iter := 0; iter < iterations; iter++ {
				for j := 0; j < numClients; j++ {
					if j == i {
						continue
					}
					conn := wire.ConnectionID{Local: addrs[i], Remote: addrs[j]}
					sender := storagep2p.NewSender(conn, states[i], storage)

					n := rnd.Intn(maxMsgsPerIter)
					for k := 0; k < n; k++ {
						msg := []byte(fmt.Sprintf("client-%d-iter-%d-peer-%d-msg-%d", i, iter, j, k))
						if err := sender.Send(ctx, msg); err != nil {
							return err
						}
					}
				}

				for j := 0; j < numClients; j++ {
					if j == i {
						continue
					}
					conn := wire.ConnectionID{Local: addrs[i], Remote: addrs[j]}
					receiver := storagep2p.NewReceiver(conn, states[i], storage)
					if err := drain(ctx, receiver); err != nil {
						return err
					}
				}
			}

			return nil
		})
	}

	group.Exit(nil)
	requireT.NoError(group.Wait())

	// Final drain pass per client.
	for i := 0; i < numClients; i++ {
		for j := 0; j < numClients; j++ {
			if j == i {
				continue
			}
			conn := wire.ConnectionID{Local: addrs[i], Remote: addrs[j]}
			receiver := storagep2p.NewReceiver(conn, states[i], storage)
			requireT.NoError(drain(context.Background(), receiver))
		}
	}

	names, err := storage.List(context.Background())
	requireT.NoError(err)
	requireT.Empty(names)

	for i := 0; i < numClients; i++ {
		for j := 0; j < numClients; j++ {
			if j == i {
				continue
			}
			sendState, err := states[i].Load(context.Background(), wire.ConnectionID{Local: addrs[i], Remote: addrs[j]})
			requireT.NoError(err)
			recvState, err := states[j].Load(context.Background(), wire.ConnectionID{Local: addrs[j], Remote: addrs[i]})
			requireT.NoError(err)
			requireT.Equal(sendState.Tx, recvState.Rx)
		}
	}
}

func drain(ctx context.Context, receiver *storagep2p.Receiver) error {
	for {
		_, err := receiver.Receive(ctx)
		if err != nil {
			if errors.Is(err, storagep2p.ErrNotFound) {
				return nil
			}
			return err
		}
	}
}

// Scenario 5: destroy semantics.
func TestDestroySemantics(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	storage := memstorage.New()
	statesA := memstate.New()
	statesB := memstate.New()

	a := fixedAddr(t, 0x01)
	b := fixedAddr(t, 0x02)
	connAB := wire.ConnectionID{Local: a, Remote: b}
	connBA := wire.ConnectionID{Local: b, Remote: a}

	socketA := storagep2p.New(statesA, storage)
	socketB := storagep2p.New(statesB, storage)

	for i := 0; i < 5; i++ {
		requireT.NoError(socketA.Send(ctx, connAB, []byte(fmt.Sprintf("a-%d", i))))
		requireT.NoError(socketB.Send(ctx, connBA, []byte(fmt.Sprintf("b-%d", i))))
	}

	names, err := storage.List(ctx)
	requireT.NoError(err)
	requireT.Len(names, 10)

	requireT.NoError(socketA.Destroy(ctx, connAB))

	names, err = storage.List(ctx)
	requireT.NoError(err)
	requireT.Empty(names)

	_, err = statesA.Load(ctx, connAB)
	requireT.NoError(err)
	all, err := statesA.List(ctx)
	requireT.NoError(err)
	requireT.NotContains(all, connAB)

	stateB, err := statesB.Load(ctx, connBA)
	requireT.NoError(err)
	requireT.Equal(uint64(5), stateB.Tx)
}

// Scenario 6: foreign entries ignored.
func TestForeignEntriesIgnored(t *testing.T) {
	requireT := require.New(t)
	ctx := context.Background()

	storage := memstorage.New()
	requireT.NoError(storage.Write(ctx, []byte{0xFF, 0x00, 0xDE, 0xAD}, []byte("not a header")))

	discovery := storagep2p.NewDiscovery(storage)
	conns, err := discovery.Scan(ctx, fixedAddr(t, 0x01))
	requireT.NoError(err)
	requireT.Empty(conns)

	states := memstate.New()
	a := fixedAddr(t, 0x01)
	b := fixedAddr(t, 0x02)
	receiver := storagep2p.NewReceiver(wire.ConnectionID{Local: a, Remote: b}, states, storage)

	_, err = receiver.Peek(ctx, 0)
	requireT.ErrorIs(err, storagep2p.ErrNotFound)

	_, err = receiver.Receive(ctx)
	requireT.ErrorIs(err, storagep2p.ErrNotFound)
}
