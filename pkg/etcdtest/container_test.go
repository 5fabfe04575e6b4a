//go:build integration

package etcdtest

import (
	"context"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"
)

func TestEtcdContainer_DocumentKey(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)

	pool, err := dockertest.NewPool("")
	require.NoError(err)

	client, teardown, err := StartEtcd(pool)
	require.NoError(err)

	const key = "/payflow/payments"

	get, err := client.Get(ctx, key)
	require.NoError(err)
	require.Empty(get.Kvs)

	_, err = client.Put(ctx, key, `{"a":{"amount":10}}`)
	require.NoError(err)
	first, err := client.Get(ctx, key)
	require.NoError(err)
	require.Len(first.Kvs, 1)

	// The whole document is replaced on every write
	_, err = client.Put(ctx, key, `{}`)
	require.NoError(err)
	second, err := client.Get(ctx, key)
	require.NoError(err)
	require.Len(second.Kvs, 1)
	require.Equal("{}", string(second.Kvs[0].Value))
	require.Greater(second.Kvs[0].ModRevision, first.Kvs[0].ModRevision)

	_, err = client.Delete(ctx, key)
	require.NoError(err)
	get, err = client.Get(ctx, key)
	require.NoError(err)
	require.Empty(get.Kvs)

	teardown()

	closedCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err = client.Get(closedCtx, key)
	require.Error(err)
}
