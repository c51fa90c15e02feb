package server

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	j.events = append(j.events, e)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeHTTP struct {
	j        *journal
	startErr error
}

func (f *fakeHTTP) Start() error {
	f.j.add("http.start")
	return f.startErr
}

func (f *fakeHTTP) Stop(context.Context) error {
	f.j.add("http.stop")
	return nil
}

type fakeScheduler struct{ j *journal }

func (f *fakeScheduler) Start(context.Context) error {
	f.j.add("scheduler.start")
	return nil
}

func (f *fakeScheduler) Stop() { f.j.add("scheduler.stop") }

type fakeConsumer struct{ j *journal }

func (f *fakeConsumer) Start() error {
	f.j.add("consumer.start")
	return nil
}

func (f *fakeConsumer) Stop(context.Context) error {
	f.j.add("consumer.stop")
	return nil
}

type fakeHub struct {
	j       *journal
	running chan struct{}
}

func (f *fakeHub) Run(ctx context.Context) {
	close(f.running)
	<-ctx.Done()
}

func (f *fakeHub) Close() error {
	f.j.add("hub.close")
	return nil
}

type fakeCloser struct {
	j    *journal
	name string
	err  error
}

func (f fakeCloser) Close() error {
	f.j.add(f.name + ".close")
	return f.err
}

func TestAppStartAndShutdownOrder(t *testing.T) {
	j := &journal{}
	hub := &fakeHub{j: j, running: make(chan struct{})}
	a := newApp(nil, &fakeHTTP{j: j},
		WithHub(hub),
		WithScheduler(&fakeScheduler{j: j}),
		WithConsumer(&fakeConsumer{j: j}),
		WithCloser("store", fakeCloser{j: j, name: "store"}),
		WithCloser("producer", fakeCloser{j: j, name: "producer"}),
	)

	require.NoError(t, a.Start(context.Background()))
	<-hub.running
	assert.Equal(t, []string{"consumer.start", "scheduler.start", "http.start"}, j.list())

	require.NoError(t, a.Shutdown(context.Background()))
	assert.Equal(t, []string{
		"consumer.start", "scheduler.start", "http.start",
		"scheduler.stop", "http.stop", "consumer.stop", "hub.close",
		"producer.close", "store.close",
	}, j.list())
}

func TestAppShutdownJoinsCloseErrors(t *testing.T) {
	j := &journal{}
	boom := errors.New("boom")
	a := newApp(nil, nil,
		WithCloser("store", fakeCloser{j: j, name: "store", err: boom}),
		WithCloser("nil", nil),
	)
	require.NoError(t, a.Start(context.Background()))

	err := a.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "store")
	assert.Equal(t, []string{"store.close"}, j.list())
}

func TestAppRunReturnsStartupError(t *testing.T) {
	j := &journal{}
	boom := errors.New("bind: address in use")
	a := newApp(nil, &fakeHTTP{j: j, startErr: boom}, WithCloser("store", fakeCloser{j: j, name: "store"}))

	err := a.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, j.list(), "store.close")
}

func TestAppRunStopsOnContextCancel(t *testing.T) {
	j := &journal{}
	a := newApp(nil, &fakeHTTP{j: j})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, a.Run(ctx))
	assert.Equal(t, []string{"http.start", "http.stop"}, j.list())
}
