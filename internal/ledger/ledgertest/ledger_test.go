package ledgertest_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/ledger/connmgr"
	"github.com/yndnr/assetgw-go/internal/ledger/gateway"
	"github.com/yndnr/assetgw-go/internal/ledger/ledgertest"
	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
)

type memStore struct{}

func (memStore) Resolve(_ context.Context, label string) (*wallet.Credential, error) {
	if label == "ghost" {
		return nil, domain.ErrIdentityNotFound
	}
	return &wallet.Credential{Label: label, MSPID: "Org1MSP"}, nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStack(l *ledgertest.Ledger, opts ...connmgr.Option) (*connmgr.Manager, *gateway.Gateway) {
	m := connmgr.New(memStore{}, l, append([]connmgr.Option{connmgr.WithLogger(quiet())}, opts...)...)
	g := gateway.New(m, gateway.Config{
		Identity:        "appUser",
		Channel:         "mychannel",
		Contract:        "fabcar",
		DispatchTimeout: 2 * time.Second,
	}, gateway.WithLogger(quiet()))
	return m, g
}

func createOp(id, balance string) domain.Operation {
	return domain.Operation{
		Name:     domain.OpCreateAsset,
		Args:     []string{id, "9999999999", "1234", "active", "init", "seed", balance, "0"},
		Mutating: true,
	}
}

func updateOp(id, balance string) domain.Operation {
	op := createOp(id, balance)
	op.Name = domain.OpUpdateAsset
	op.Args[4] = "credit"
	return op
}

func TestLedger_CreateReadHistory(t *testing.T) {
	l := ledgertest.New("mychannel", "fabcar")
	_, g := newStack(l)
	ctx := context.Background()

	res, err := g.Dispatch(ctx, createOp("D1", "500"))
	require.NoError(t, err)
	assert.Len(t, res.TransactionID, 64)
	assert.EqualValues(t, 1, res.BlockNumber)

	read, err := g.Dispatch(ctx, domain.Operation{Name: domain.OpReadAsset, Args: []string{"D1"}})
	require.NoError(t, err)

	var rec ledgertest.Record
	require.NoError(t, json.Unmarshal(read.Payload, &rec))
	assert.Equal(t, "500", rec.Balance)
	assert.Equal(t, "seed", rec.Remarks)

	_, err = g.Dispatch(ctx, updateOp("D1", "750"))
	require.NoError(t, err)

	hist, err := g.Dispatch(ctx, domain.Operation{Name: domain.OpGetAssetHistory, Args: []string{"D1"}})
	require.NoError(t, err)

	var versions []ledgertest.Record
	require.NoError(t, json.Unmarshal(hist.Payload, &versions))
	require.Len(t, versions, 2)
	assert.Equal(t, "500", versions[0].Balance)
	assert.Equal(t, "750", versions[1].Balance)
	assert.Equal(t, "credit", versions[1].TransType)

	assert.Equal(t, l.Dials(), l.Closes())
	assert.Zero(t, l.Open())
}

func TestLedger_RepeatedReadsIdentical(t *testing.T) {
	l := ledgertest.New("mychannel", "fabcar")
	l.Put(ledgertest.Record{DealerID: "D1", Balance: "100"})
	_, g := newStack(l)

	read := domain.Operation{Name: domain.OpReadAsset, Args: []string{"D1"}}
	first, err := g.Dispatch(context.Background(), read)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := g.Dispatch(context.Background(), read)
		require.NoError(t, err)
		assert.Equal(t, first.Payload, again.Payload)
	}
}

func TestLedger_Rejections(t *testing.T) {
	l := ledgertest.New("mychannel", "fabcar")
	_, g := newStack(l)
	ctx := context.Background()

	_, err := g.Dispatch(ctx, updateOp("NOPE", "1"))
	require.ErrorIs(t, err, domain.ErrTransactionFailed)
	de, _ := domain.AsDomainError(err)
	assert.Equal(t, "asset NOPE does not exist", de.Details)

	_, err = g.Dispatch(ctx, domain.Operation{Name: domain.OpReadAsset, Args: []string{"NOPE"}})
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)

	_, err = g.Dispatch(ctx, domain.Operation{Name: "Burn", Mutating: true})
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)

	hist, err := g.Dispatch(ctx, domain.Operation{Name: domain.OpGetAssetHistory, Args: []string{"NOPE"}})
	require.NoError(t, err)
	assert.Empty(t, hist.Payload)

	assert.Zero(t, l.Open())
}

func TestLedger_UnknownContractAndChannel(t *testing.T) {
	l := ledgertest.New("otherchannel", "fabcar")
	_, g := newStack(l)

	_, err := g.Dispatch(context.Background(), createOp("D1", "1"))
	assert.ErrorIs(t, err, domain.ErrContractNotFound)

	l = ledgertest.New("mychannel", "basic")
	_, g = newStack(l)
	_, err = g.Dispatch(context.Background(), createOp("D1", "1"))
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
	assert.Zero(t, l.Open())
}

func TestLedger_UnknownIdentityNeverDials(t *testing.T) {
	l := ledgertest.New("mychannel", "fabcar")
	_, g := newStack(l)

	_, err := g.DispatchAs(context.Background(), "ghost", createOp("D1", "1"))
	assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	assert.Zero(t, l.Dials())
}

func TestLedger_DialFailure(t *testing.T) {
	l := ledgertest.New("mychannel", "fabcar")
	l.FailDial(errors.New("connection refused"))
	_, g := newStack(l)

	_, err := g.Dispatch(context.Background(), createOp("D1", "1"))
	assert.ErrorIs(t, err, domain.ErrChannelUnreachable)

	l.FailDial(nil)
	_, err = g.Dispatch(context.Background(), createOp("D1", "1"))
	assert.NoError(t, err)
}

func TestLedger_TimeoutReleasesSession(t *testing.T) {
	l := ledgertest.New("mychannel", "fabcar")
	l.SetLatency(time.Minute)

	m := connmgr.New(memStore{}, l, connmgr.WithLogger(quiet()))
	g := gateway.New(m, gateway.Config{
		Identity: "appUser", Channel: "mychannel", Contract: "fabcar",
		DispatchTimeout: 30 * time.Millisecond,
	}, gateway.WithLogger(quiet()))

	_, err := g.Dispatch(context.Background(), createOp("D1", "1"))
	assert.ErrorIs(t, err, domain.ErrTransactionUncertain)

	_, err = g.Dispatch(context.Background(), domain.Operation{Name: domain.OpReadAsset, Args: []string{"D1"}})
	assert.ErrorIs(t, err, domain.ErrChannelUnreachable)

	assert.EqualValues(t, 2, l.Closes())
	assert.Zero(t, l.Open())
}

func TestLedger_ConcurrentIdentities(t *testing.T) {
	const n = 16
	l := ledgertest.New("mychannel", "fabcar")
	l.SetLatency(50 * time.Millisecond)
	l.FailClose(errors.New("close failed"))
	_, g := newStack(l)

	start := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("D%d", i)
			_, errs[i] = g.DispatchAs(context.Background(), fmt.Sprintf("user%d", i), createOp(id, "10"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	// Serialized dispatches would take n*50ms.
	assert.Less(t, time.Since(start), time.Duration(n)*50*time.Millisecond/2)
	assert.EqualValues(t, n, l.Closes())
}

func TestLedger_PooledSessionsReused(t *testing.T) {
	l := ledgertest.New("mychannel", "fabcar")
	m, g := newStack(l, connmgr.WithPool(connmgr.PoolConfig{Enabled: true, MaxIdle: 2, MaxAge: time.Minute}))

	for i := 0; i < 5; i++ {
		_, err := g.Dispatch(context.Background(), createOp("D1", "1"))
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, l.Dials())
	assert.EqualValues(t, 1, l.Open())

	require.NoError(t, m.Close())
	assert.Zero(t, l.Open())
}
