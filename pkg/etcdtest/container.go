package etcdtest

import (
	"context"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const (
	imageName = "quay.io/coreos/etcd"
	imageTag  = "v3.5.13"

	containerAutoKill = 120 * time.Second
)

// StartEtcd runs a single node etcd container and returns a client connected
// to it. teardown closes the client and purges the container.
func StartEtcd(pool *dockertest.Pool) (client *clientv3.Client, teardown func(), err error) {
	teardown = func() {}

	log := logrus.StandardLogger().WithField("method", "StartEtcd")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: imageName,
		Tag:        imageTag,
		Cmd: []string{
			"etcd",
			"--listen-client-urls=http://0.0.0.0:2379",
			"--advertise-client-urls=http://0.0.0.0:2379",
		},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, teardown, errors.Wrap(err, "failed to start etcd")
	}

	// Expire() never returns an error
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	purge := func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Error("failed to cleanup etcd resource")
		}
	}

	client, err = clientv3.New(clientv3.Config{
		Endpoints:   []string{fmt.Sprintf("localhost:%s", resource.GetPort("2379/tcp"))},
		DialTimeout: 5 * time.Second,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		purge()
		return nil, teardown, errors.Wrap(err, "failed to create etcd client")
	}

	teardown = func() {
		client.Close()
		purge()
	}

	err = pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := client.Get(ctx, "__startup_test")
		return err
	})
	if err != nil {
		teardown()
		return nil, func() {}, errors.Wrap(err, "failed waiting for stable connection")
	}

	return client, teardown, nil
}
