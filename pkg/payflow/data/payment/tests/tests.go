package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/payflow-server/pkg/payflow/data/payment"
)

func RunTests(t *testing.T, s payment.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s payment.Store){
		testEmptyStore,
		testRoundTrip,
		testSaveAllReplacesCollection,
		testLoadedRecordsAreCopies,
		testCounting,
	} {
		tf(t, s)
		teardown()
	}
}

func testEmptyStore(t *testing.T, s payment.Store) {
	t.Run("testEmptyStore", func(t *testing.T) {
		ctx := context.Background()

		all, err := s.LoadAll(ctx)
		require.NoError(t, err)
		require.NotNil(t, all)
		assert.Empty(t, all)

		_, err = payment.Get(ctx, s, "missing")
		assert.Equal(t, payment.ErrNotFound, err)
	})
}

func testRoundTrip(t *testing.T, s payment.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		record := &payment.Record{
			Id:            "PP002",
			Amount:        2500.75,
			PaymentMethod: "paypal",
			State:         payment.StateRegistered,
		}
		cloned := record.Clone()

		require.NoError(t, payment.Put(ctx, s, record))

		actual, err := payment.Get(ctx, s, record.Id)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		record.State = payment.StatePaid
		cloned = record.Clone()
		require.NoError(t, payment.Put(ctx, s, record))

		actual, err = payment.Get(ctx, s, record.Id)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		all, err := s.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)

		invalid := &payment.Record{Id: "bad", Amount: -1, PaymentMethod: "paypal", State: payment.StateRegistered}
		assert.Error(t, payment.Put(ctx, s, invalid))
	})
}

func testSaveAllReplacesCollection(t *testing.T, s payment.Store) {
	t.Run("testSaveAllReplacesCollection", func(t *testing.T) {
		ctx := context.Background()

		first := map[string]*payment.Record{
			"a": {Id: "a", Amount: 1, PaymentMethod: "paypal", State: payment.StateRegistered},
			"b": {Id: "b", Amount: 2, PaymentMethod: "credit_card", State: payment.StateFailed},
		}
		require.NoError(t, s.SaveAll(ctx, first))

		second := map[string]*payment.Record{
			"c": {Id: "c", Amount: 3, PaymentMethod: "tarjeta_credito", State: payment.StatePaid},
		}
		require.NoError(t, s.SaveAll(ctx, second))

		all, err := s.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assertEquivalentRecords(t, second["c"], all["c"])

		require.NoError(t, s.SaveAll(ctx, map[string]*payment.Record{}))
		all, err = s.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func testLoadedRecordsAreCopies(t *testing.T, s payment.Store) {
	t.Run("testLoadedRecordsAreCopies", func(t *testing.T) {
		ctx := context.Background()

		record := &payment.Record{Id: "copy", Amount: 10, PaymentMethod: "paypal", State: payment.StateRegistered}
		require.NoError(t, payment.Put(ctx, s, record))

		record.Amount = 20

		all, err := s.LoadAll(ctx)
		require.NoError(t, err)
		all["copy"].Amount = 30
		delete(all, "copy")

		actual, err := payment.Get(ctx, s, "copy")
		require.NoError(t, err)
		assert.Equal(t, 10.0, actual.Amount)
	})
}

func testCounting(t *testing.T, s payment.Store) {
	t.Run("testCounting", func(t *testing.T) {
		ctx := context.Background()

		records := map[string]*payment.Record{}
		for i, state := range []payment.State{
			payment.StateRegistered,
			payment.StateRegistered,
			payment.StateFailed,
			payment.StatePaid,
		} {
			id := fmt.Sprintf("cc%d", i)
			records[id] = &payment.Record{Id: id, Amount: 100, PaymentMethod: "credit_card", State: state}
		}
		records["alias"] = &payment.Record{Id: "alias", Amount: 100, PaymentMethod: "tarjeta_credito", State: payment.StateRegistered}
		records["pp"] = &payment.Record{Id: "pp", Amount: 100, PaymentMethod: "paypal", State: payment.StateRegistered}
		require.NoError(t, s.SaveAll(ctx, records))

		count, err := payment.CountByMethodAndState(ctx, s, payment.MethodCreditCard, payment.StateRegistered, "")
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		count, err = payment.CountByMethodAndState(ctx, s, payment.MethodCreditCard, payment.StateRegistered, "cc0")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		count, err = payment.CountByMethodAndState(ctx, s, payment.MethodPayPal, payment.StatePaid, "")
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		all, err := s.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 6)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *payment.Record) {
	assert.Equal(t, obj1.Id, obj2.Id)
	assert.Equal(t, obj1.Amount, obj2.Amount)
	assert.Equal(t, obj1.PaymentMethod, obj2.PaymentMethod)
	assert.Equal(t, obj1.State, obj2.State)
}
