package server_test

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeii/go-url-shortener/pkg/http/server"
)

func getFreeAddr(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestStartStopsOnContextCancel(t *testing.T) {
	addr := getFreeAddr(t)
	srv := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	hookCalled := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- server.Start(
			ctx, srv,
			server.WithShutdownTimeout(time.Second),
			server.WithShutdownHook(func() { close(hookCalled) }),
		)
	}()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusTeapot
	}, time.Second*2, time.Millisecond*20)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second * 3):
		t.Fatal("server did not stop in time")
	}
	_, ok := <-hookCalled
	assert.False(t, ok)
}

func TestStartFailsOnBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	err = server.Start(context.Background(), srv)
	assert.Error(t, err)
}
