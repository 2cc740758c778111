package buffer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spacemeshos/go-iusync/codec"
	"github.com/spacemeshos/go-iusync/iu"
	"github.com/spacemeshos/go-iusync/log/logtest"
	"github.com/spacemeshos/go-iusync/transport"
	"github.com/spacemeshos/go-iusync/transport/mocks"
	"github.com/spacemeshos/go-iusync/wire"
)

const (
	shortName = "AIDtest"
	ownerB    = "/ipaaca/component/BIDx/IB"
)

type tester struct {
	*InputBuffer
	ctrl    *gomock.Controller
	factory *mocks.MockFactory
	logs    *observer.ObservedLogs

	mu          sync.Mutex
	subscribers map[string]transport.Handler
	created     map[string]int
}

func newTester(tb testing.TB, cfg Config) *tester {
	tb.Helper()
	ctrl := gomock.NewController(tb)
	tr := &tester{
		ctrl:        ctrl,
		factory:     mocks.NewMockFactory(ctrl),
		subscribers: map[string]transport.Handler{},
		created:     map[string]int{},
	}
	tr.factory.EXPECT().CreateListener(gomock.Any()).DoAndReturn(tr.newListener).AnyTimes()

	core, logs := observer.New(zapcore.DebugLevel)
	tr.logs = logs
	logger := zap.New(zapcore.NewTee(core, logtest.New(tb).Core()))

	if cfg.OwningComponentName == "" {
		cfg.OwningComponentName = "A"
	}
	b, err := New(tr.factory, cfg, WithLogger(logger), WithUniqueShortName(shortName))
	require.NoError(tb, err)
	tr.InputBuffer = b
	tb.Cleanup(func() { require.NoError(tb, b.Close()) })
	return tr
}

func (tr *tester) newListener(scope string) (transport.Listener, error) {
	tr.mu.Lock()
	tr.created[scope]++
	tr.mu.Unlock()
	l := mocks.NewMockListener(tr.ctrl)
	l.EXPECT().AddHandler(gomock.Any()).Do(func(h transport.Handler) {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		tr.subscribers[scope] = h
	})
	l.EXPECT().Activate().Return(nil)
	l.EXPECT().Deactivate().Return(nil)
	return l, nil
}

func (tr *tester) deliver(tb testing.TB, category string, ev wire.Event) error {
	tb.Helper()
	tr.mu.Lock()
	h, ok := tr.subscribers[transport.ListenerScope(transport.DefaultChannel, category)]
	tr.mu.Unlock()
	require.True(tb, ok, "category %s is not subscribed", category)
	return h(context.Background(), wire.MustEncode(ev))
}

func (tr *tester) expectRemote(owner string) *mocks.MockRemoteServer {
	r := mocks.NewMockRemoteServer(tr.ctrl)
	tr.factory.EXPECT().CreateRemoteServer(owner).Return(r, nil)
	r.EXPECT().Activate().Return(nil)
	r.EXPECT().Deactivate().Return(nil)
	return r
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []iu.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []iu.EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func announcement(uid string, payload map[string]string) *wire.UnitAnnouncement {
	return &wire.UnitAnnouncement{Unit: wire.UnitState{
		UID:         uid,
		Revision:    1,
		Category:    "nlu",
		PayloadType: iu.PayloadStr,
		OwnerName:   ownerB,
		Payload:     wire.ItemsFromMap(payload),
	}}
}

func TestNew(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu", "asr"}})
	require.Equal(t, shortName, tr.UniqueShortName())
	require.Equal(t, "/ipaaca/component/AIDtest/IB", tr.UniqueName())
	require.Equal(t, "A", tr.OwningComponentName())
	require.Equal(t, []string{shortName, "asr", "nlu"}, tr.CategoryInterests())
	require.Contains(t, tr.subscribers, "/ipaaca/channel/default/category/nlu")
	require.Contains(t, tr.subscribers, "/ipaaca/channel/default/category/"+shortName)
	require.False(t, tr.ResendActive())
	tr.SetResendActive(true)
	require.True(t, tr.ResendActive())
}

func TestNewGeneratedNames(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := mocks.NewMockFactory(ctrl)
	l := mocks.NewMockListener(ctrl)
	factory.EXPECT().CreateListener(gomock.Any()).Return(l, nil)
	l.EXPECT().AddHandler(gomock.Any())
	l.EXPECT().Activate().Return(nil)
	l.EXPECT().Deactivate().Return(nil)

	b, err := New(factory, Config{OwningComponentName: "Comp", Channel: "robot"})
	require.NoError(t, err)
	require.Regexp(t, `^CompID[0-9a-f]{32}$`, b.UniqueShortName())
	require.Equal(t, "/ipaaca/component/"+b.UniqueShortName()+"/IB", b.UniqueName())
	require.NoError(t, b.Close())
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(mocks.NewMockFactory(gomock.NewController(t)), Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewActivationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := mocks.NewMockFactory(ctrl)

	first := mocks.NewMockListener(ctrl)
	first.EXPECT().AddHandler(gomock.Any())
	first.EXPECT().Activate().Return(nil)
	first.EXPECT().Deactivate().Return(nil)
	second := mocks.NewMockListener(ctrl)
	second.EXPECT().AddHandler(gomock.Any())
	second.EXPECT().Activate().Return(errors.New("no route"))

	gomock.InOrder(
		factory.EXPECT().CreateListener("/ipaaca/channel/default/category/nlu").Return(first, nil),
		factory.EXPECT().CreateListener("/ipaaca/channel/default/category/asr").Return(second, nil),
	)
	_, err := New(factory, Config{OwningComponentName: "A", CategoryInterests: []string{"nlu", "asr"}})
	require.ErrorIs(t, err, ErrActivation)
	require.ErrorContains(t, err, "no route")
}

func TestAddCategoryInterestIdempotent(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	require.NoError(t, tr.AddCategoryInterest("nlu", "asr"))
	require.NoError(t, tr.AddCategoryInterest("asr"))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tr.AddCategoryInterest("dm"))
		}()
	}
	wg.Wait()

	require.Equal(t, 1, tr.created["/ipaaca/channel/default/category/nlu"])
	require.Equal(t, 1, tr.created["/ipaaca/channel/default/category/asr"])
	require.Equal(t, 1, tr.created["/ipaaca/channel/default/category/dm"])
	require.Equal(t, []string{shortName, "asr", "dm", "nlu"}, tr.CategoryInterests())
}

func TestAnnouncement(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	var rec recorder
	tr.RegisterHandler(rec.handle, iu.AllEvents)

	require.NoError(t, tr.deliver(t, "nlu", announcement("u1", map[string]string{"text": "hi"})))
	require.NoError(t, tr.deliver(t, "nlu", announcement("u1", map[string]string{"text": "other"})))

	require.Equal(t, []iu.EventType{iu.Added}, rec.types())
	ev := rec.events[0]
	require.Equal(t, "u1", ev.UID)
	require.Equal(t, "nlu", ev.Category)
	require.True(t, ev.Remote)

	u, ok := tr.Unit("u1")
	require.True(t, ok)
	require.Same(t, ev.Unit, u)
	require.Equal(t, iu.Payload{"text": "hi"}, u.Payload())
	require.False(t, u.Committed())
	require.False(t, u.Retracted())
	require.Equal(t, ownerB, u.OwnerName())
	require.Len(t, tr.Units(), 1)
	require.Equal(t, 1, tr.units.len())
	require.Equal(t, 1.0, testutil.ToFloat64(mirroredUnits.WithLabelValues(shortName)))
}

func TestUpdatesApplied(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	require.NoError(t, tr.deliver(t, "nlu", announcement("u1", map[string]string{"text": "hi", "lang": "en"})))
	var rec recorder
	tr.RegisterUnitHandler("u1", rec.handle, iu.AllEvents)

	require.NoError(t, tr.deliver(t, "nlu", &wire.PayloadUpdate{
		UID:          "u1",
		Revision:     2,
		Writer:       ownerB,
		IsDelta:      true,
		NewItems:     []wire.Item{{Key: "text", Value: "hello"}},
		KeysToRemove: []string{"lang"},
	}))
	require.NoError(t, tr.deliver(t, "nlu", &wire.LinkUpdate{
		UID:      "u1",
		Revision: 3,
		Writer:   ownerB,
		IsDelta:  true,
		NewLinks: []wire.LinkSet{{Type: "grin", Targets: []string{"u0"}}},
	}))

	u, _ := tr.Unit("u1")
	require.Equal(t, iu.Payload{"text": "hello"}, u.Payload())
	require.Equal(t, iu.Links{"grin": {"u0"}}, u.Links())
	require.EqualValues(t, 3, u.Revision())
	require.Equal(t, []iu.EventType{iu.Updated, iu.LinksUpdated}, rec.types())
}

func TestSelfEchoSuppressed(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
	require.NoError(t, tr.deliver(t, "nlu", announcement("u1", map[string]string{"text": "hi"})))
	var rec recorder
	tr.RegisterHandler(rec.handle, iu.AllEvents)
	before := testutil.ToFloat64(eventsDropped.WithLabelValues(dropSelfEcho))

	self := tr.UniqueName()
	for _, ev := range []wire.Event{
		&wire.PayloadUpdate{UID: "u1", Revision: 5, Writer: self, NewItems: []wire.Item{{Key: "text", Value: "x"}}},
		&wire.LinkUpdate{UID: "u1", Revision: 5, Writer: self, NewLinks: []wire.LinkSet{{Type: "grin", Targets: []string{"x"}}}},
		&wire.Commission{UID: "u1", Revision: 5, Writer: self},
		// unknown units from self never trigger a resend either
		&wire.PayloadUpdate{UID: "u9", Writer: self},
	} {
		require.NoError(t, tr.deliver(t, "nlu", ev))
	}

	u, _ := tr.Unit("u1")
	require.Equal(t, iu.Payload{"text": "hi"}, u.Payload())
	require.Empty(t, u.Links())
	require.False(t, u.Committed())
	require.EqualValues(t, 1, u.Revision())
	require.Empty(t, rec.types())
	require.Equal(t, 4.0, testutil.ToFloat64(eventsDropped.WithLabelValues(dropSelfEcho))-before)
}

func TestUnknownUnitResendDisabled(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	var rec recorder
	tr.RegisterHandler(rec.handle, iu.AllEvents)

	for _, ev := range []wire.Event{
		&wire.PayloadUpdate{UID: "u2", Writer: ownerB},
		&wire.LinkUpdate{UID: "u2", Writer: ownerB},
		&wire.Commission{UID: "u2", Writer: ownerB, Revision: 2},
	} {
		require.NoError(t, tr.deliver(t, "nlu", ev))
	}
	require.Empty(t, rec.types())
	require.Empty(t, tr.Units())
	require.Equal(t, 3, tr.logs.FilterMessage("update for unknown unit").Len())
	for _, entry := range tr.logs.FilterMessage("update for unknown unit").All() {
		require.Equal(t, zapcore.WarnLevel, entry.Level)
	}
}

func TestUnknownUnitResendEnabled(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
	var rec recorder
	tr.RegisterHandler(rec.handle, iu.AllEvents)

	remote := tr.expectRemote(ownerB)
	var requests []wire.ResendRequest
	remote.EXPECT().
		Call(gomock.Any(), wire.MethodResendRequest, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req []byte) ([]byte, error) {
			var r wire.ResendRequest
			require.NoError(t, codec.Decode(req, &r))
			requests = append(requests, r)
			return codec.MustEncode(&wire.RevisionReply{Revision: 4}), nil
		}).
		Times(3)

	for _, ev := range []wire.Event{
		&wire.PayloadUpdate{UID: "u2", Writer: ownerB},
		&wire.LinkUpdate{UID: "u3", Writer: ownerB},
		&wire.Commission{UID: "u4", Writer: ownerB, Revision: 2},
	} {
		require.NoError(t, tr.deliver(t, "nlu", ev))
	}
	require.Equal(t, []wire.ResendRequest{
		{UID: "u2", HiddenScopeName: shortName},
		{UID: "u3", HiddenScopeName: shortName},
		{UID: "u4", HiddenScopeName: shortName},
	}, requests)
	require.Empty(t, rec.types())
	require.Empty(t, tr.Units())
}

func TestResendRepairsUnit(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
	var rec recorder
	tr.RegisterHandler(rec.handle, iu.AllEvents)

	remote := tr.expectRemote(ownerB)
	remote.EXPECT().
		Call(gomock.Any(), wire.MethodResendRequest, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req []byte) ([]byte, error) {
			var r wire.ResendRequest
			require.NoError(t, codec.Decode(req, &r))
			// the owner re-publishes the full state on the hidden category
			full := announcement(r.UID, map[string]string{"text": "full"})
			full.Unit.Revision = 6
			require.NoError(t, tr.deliver(t, r.HiddenScopeName, full))
			return codec.MustEncode(&wire.RevisionReply{Revision: 6}), nil
		})

	require.NoError(t, tr.deliver(t, "nlu", &wire.PayloadUpdate{UID: "u2", Revision: 6, Writer: ownerB}))

	u, ok := tr.Unit("u2")
	require.True(t, ok)
	require.Equal(t, iu.Payload{"text": "full"}, u.Payload())
	require.EqualValues(t, 6, u.Revision())
	require.Equal(t, []iu.EventType{iu.Added}, rec.types())
}

func TestResendFailures(t *testing.T) {
	t.Run("zero revision", func(t *testing.T) {
		tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
		remote := tr.expectRemote(ownerB)
		remote.EXPECT().Call(gomock.Any(), wire.MethodResendRequest, gomock.Any()).
			Return(codec.MustEncode(&wire.RevisionReply{}), nil).Times(2)
		before := testutil.ToFloat64(resendRequests.WithLabelValues(resendRejected))

		require.NoError(t, tr.deliver(t, "nlu", &wire.PayloadUpdate{UID: "u2", Writer: ownerB}))
		// the remote server is cached
		require.NoError(t, tr.deliver(t, "nlu", &wire.PayloadUpdate{UID: "u2", Writer: ownerB}))

		logged := tr.logs.FilterMessage("resend request failed").All()
		require.Len(t, logged, 2)
		require.Equal(t, zapcore.WarnLevel, logged[0].Level)
		require.Contains(t, logged[0].ContextMap()["error"], ErrResendFailed.Error())
		require.Equal(t, 2.0, testutil.ToFloat64(resendRequests.WithLabelValues(resendRejected))-before)
	})
	t.Run("call error", func(t *testing.T) {
		tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
		remote := tr.expectRemote(ownerB)
		remote.EXPECT().Call(gomock.Any(), wire.MethodResendRequest, gomock.Any()).
			Return(nil, errors.New("execution fault"))

		require.NoError(t, tr.deliver(t, "nlu", &wire.Commission{UID: "u2", Writer: ownerB}))
		require.Equal(t, 1, tr.logs.FilterMessage("resend request failed").Len())
	})
	t.Run("malformed reply", func(t *testing.T) {
		tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
		remote := tr.expectRemote(ownerB)
		remote.EXPECT().Call(gomock.Any(), wire.MethodResendRequest, gomock.Any()).
			Return([]byte{}, nil)

		require.NoError(t, tr.deliver(t, "nlu", &wire.Commission{UID: "u2", Writer: ownerB}))
		require.Equal(t, 1, tr.logs.FilterMessage("resend request failed").Len())
	})
	t.Run("timeout", func(t *testing.T) {
		tr := newTester(t, Config{
			CategoryInterests: []string{"nlu"},
			ResendActive:      true,
			RemoteCallTimeout: 20 * time.Millisecond,
		})
		remote := tr.expectRemote(ownerB)
		remote.EXPECT().Call(gomock.Any(), wire.MethodResendRequest, gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string, _ []byte) ([]byte, error) {
				_, ok := ctx.Deadline()
				require.True(t, ok)
				<-ctx.Done()
				return nil, ctx.Err()
			})

		require.NoError(t, tr.deliver(t, "nlu", &wire.LinkUpdate{UID: "u2", Writer: ownerB}))
		logged := tr.logs.FilterMessage("resend request failed").All()
		require.Len(t, logged, 1)
		require.Contains(t, logged[0].ContextMap()["error"], context.DeadlineExceeded.Error())
	})
	t.Run("activation failure", func(t *testing.T) {
		tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
		remote := mocks.NewMockRemoteServer(tr.ctrl)
		tr.factory.EXPECT().CreateRemoteServer(ownerB).Return(remote, nil)
		remote.EXPECT().Activate().Return(errors.New("unreachable"))

		err := tr.deliver(t, "nlu", &wire.PayloadUpdate{UID: "u2", Writer: ownerB})
		require.ErrorIs(t, err, ErrActivation)
		require.ErrorContains(t, err, "unreachable")
	})
	t.Run("no writer", func(t *testing.T) {
		tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
		require.NoError(t, tr.deliver(t, "nlu", &wire.PayloadUpdate{UID: "u2"}))
		require.Empty(t, tr.logs.FilterMessage("resend request failed").All())
	})
}

func TestCommitSetsRevisionAndLatches(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	ann := announcement("u1", map[string]string{"text": "hi"})
	ann.Unit.Revision = 7
	require.NoError(t, tr.deliver(t, "nlu", ann))
	var rec recorder
	tr.RegisterHandler(rec.handle, iu.AllEvents, "nlu")

	require.NoError(t, tr.deliver(t, "nlu", &wire.Commission{UID: "u1", Revision: 3, Writer: ownerB}))
	u, _ := tr.Unit("u1")
	require.EqualValues(t, 3, u.Revision())
	require.True(t, u.Committed())

	require.NoError(t, tr.deliver(t, "nlu", &wire.PayloadUpdate{
		UID:      "u1",
		Revision: 4,
		Writer:   ownerB,
		NewItems: []wire.Item{{Key: "text", Value: "late"}},
	}))
	require.NoError(t, tr.deliver(t, "nlu", &wire.LinkUpdate{
		UID:      "u1",
		Revision: 4,
		Writer:   ownerB,
		NewLinks: []wire.LinkSet{{Type: "grin", Targets: []string{"u0"}}},
	}))
	require.Equal(t, iu.Payload{"text": "hi"}, u.Payload())
	require.Empty(t, u.Links())
	require.EqualValues(t, 3, u.Revision())
	require.Equal(t, []iu.EventType{iu.Committed}, rec.types())

	rejected := tr.logs.FilterMessage("update rejected").All()
	require.Len(t, rejected, 2)
	require.Equal(t, iu.ErrCommitted.Error(), rejected[0].ContextMap()["error"])
}

func TestRetraction(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}, ResendActive: true})
	require.NoError(t, tr.deliver(t, "nlu", announcement("u1", nil)))
	var rec recorder
	tr.RegisterHandler(rec.handle, iu.AllEvents)

	// no writer check for retractions, even from this component itself
	require.NoError(t, tr.deliver(t, "nlu", &wire.Retraction{UID: "u1", Writer: tr.UniqueName()}))
	u, _ := tr.Unit("u1")
	require.True(t, u.Retracted())
	require.Len(t, tr.Units(), 1)
	require.Equal(t, []iu.EventType{iu.Retracted}, rec.types())

	// payload updates after a retraction are rejected
	require.NoError(t, tr.deliver(t, "nlu", &wire.PayloadUpdate{UID: "u1", Writer: ownerB, NewItems: []wire.Item{{Key: "a", Value: "b"}}}))
	require.Empty(t, u.Payload())

	// unknown retractions never trigger a resend, the factory has no remote expectation
	require.NoError(t, tr.deliver(t, "nlu", &wire.Retraction{UID: "u9", Writer: ownerB}))
	require.Equal(t, 1, tr.logs.FilterMessage("retraction for unknown unit").Len())
	require.Equal(t, []iu.EventType{iu.Retracted}, rec.types())
}

func TestTransientMessage(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	var (
		seen     bool
		observed iu.Payload
	)
	tr.RegisterHandler(func(_ context.Context, ev Event) {
		u, ok := tr.Unit(ev.UID)
		seen = ok
		observed = u.Payload()
		require.Empty(t, tr.Units())
	}, iu.Message)

	msg := &wire.Message{Unit: wire.UnitState{
		UID:       "m1",
		Category:  "nlu",
		OwnerName: ownerB,
		Payload:   []wire.Item{{Key: "text", Value: "ping"}},
	}}
	require.NoError(t, tr.deliver(t, "nlu", msg))
	require.True(t, seen)
	require.Equal(t, iu.Payload{"text": "ping"}, observed)

	_, ok := tr.Unit("m1")
	require.False(t, ok)
	require.Empty(t, tr.Units())
	require.Zero(t, tr.messages.len())
}

func TestDuplicateTransientDelivery(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	var (
		mu    sync.Mutex
		calls int
	)
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	tr.RegisterHandler(func(context.Context, Event) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			started <- struct{}{}
			<-release
		}
	}, iu.Message)
	dropped := testutil.ToFloat64(eventsDropped.WithLabelValues(dropDuplicateMessage))

	msg := &wire.Message{Unit: wire.UnitState{UID: "m1", Category: "nlu"}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, tr.deliver(t, "nlu", msg))
	}()
	<-started

	require.NoError(t, tr.deliver(t, "nlu", msg))
	logged := tr.logs.FilterMessage("duplicate transient delivery").All()
	require.Len(t, logged, 1)
	require.Equal(t, zapcore.WarnLevel, logged[0].Level)
	require.Equal(t, "m1", logged[0].ContextMap()["uid"])
	require.Equal(t, dropped+1, testutil.ToFloat64(eventsDropped.WithLabelValues(dropDuplicateMessage)))

	close(release)
	<-done
	mu.Lock()
	require.Equal(t, 1, calls)
	mu.Unlock()
	require.Zero(t, tr.messages.len())

	// the id is free again once the first delivery finished
	require.NoError(t, tr.deliver(t, "nlu", msg))
	mu.Lock()
	require.Equal(t, 2, calls)
	mu.Unlock()
	require.Equal(t, 1, tr.logs.FilterMessage("duplicate transient delivery").Len())
}

func TestHandlerRegistration(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu", "asr"}})
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) EventHandler {
		return func(_ context.Context, ev Event) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name+":"+ev.Type.String())
		}
	}
	tr.RegisterHandler(record("all"), iu.AllEvents)
	tr.RegisterHandler(record("asr"), iu.AllEvents, "asr")
	tr.RegisterHandler(record("commits"), iu.Committed)
	tr.RegisterUnitHandler("u1", record("u1"), iu.Added|iu.Committed)
	removed := tr.RegisterHandler(record("removed"), iu.AllEvents)
	require.True(t, tr.UnregisterHandler(removed))
	require.False(t, tr.UnregisterHandler(removed))

	require.NoError(t, tr.deliver(t, "nlu", announcement("u1", nil)))
	require.NoError(t, tr.deliver(t, "nlu", &wire.Commission{UID: "u1", Revision: 2, Writer: ownerB}))
	asr := announcement("u2", nil)
	asr.Unit.Category = "asr"
	require.NoError(t, tr.deliver(t, "asr", asr))

	require.Equal(t, []string{
		"all:ADDED",
		"u1:ADDED",
		"all:COMMITTED",
		"commits:COMMITTED",
		"u1:COMMITTED",
		"all:ADDED",
		"asr:ADDED",
	}, order)
}

func TestHandlerPanicRecovered(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	before := testutil.ToFloat64(handlerPanics)
	tr.RegisterHandler(func(context.Context, Event) { panic("boom") }, iu.AllEvents)
	var rec recorder
	tr.RegisterHandler(rec.handle, iu.AllEvents)

	require.NoError(t, tr.deliver(t, "nlu", announcement("u1", map[string]string{"text": "hi"})))
	require.Equal(t, []iu.EventType{iu.Added}, rec.types())
	_, ok := tr.Unit("u1")
	require.True(t, ok)
	require.Equal(t, 1.0, testutil.ToFloat64(handlerPanics)-before)
	require.Equal(t, 1, tr.logs.FilterMessage("event handler panicked").Len())

	// transient messages are removed even if a handler panics
	require.NoError(t, tr.deliver(t, "nlu", &wire.Message{Unit: wire.UnitState{UID: "m1", Category: "nlu"}}))
	require.Zero(t, tr.messages.len())
}

func TestMalformedEventDropped(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	h := tr.subscribers[transport.ListenerScope(transport.DefaultChannel, "nlu")]
	require.NoError(t, h(context.Background(), []byte{0xff, 0x01}))
	require.NoError(t, h(context.Background(), nil))
	require.Equal(t, 2, tr.logs.FilterMessage("failed to decode event").Len())
}

func TestConcurrentDispatch(t *testing.T) {
	tr := newTester(t, Config{CategoryInterests: []string{"nlu"}})
	const units, updates = 8, 32
	var wg sync.WaitGroup
	for i := range units {
		uid := string(rune('a' + i))
		require.NoError(t, tr.deliver(t, "nlu", announcement(uid, nil)))
		for j := range updates {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tr.deliver(t, "nlu", &wire.PayloadUpdate{
					UID:      uid,
					Revision: uint32(j + 2),
					Writer:   ownerB,
					IsDelta:  true,
					NewItems: []wire.Item{{Key: string(rune('A' + j)), Value: "v"}},
				})
			}()
		}
	}
	wg.Wait()
	require.Len(t, tr.Units(), units)
	for _, u := range tr.Units() {
		require.Len(t, u.Payload(), updates)
		require.EqualValues(t, updates+1, u.Revision())
	}
}

func TestClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := mocks.NewMockFactory(ctrl)
	var handler transport.Handler
	newListener := func(deactivateErr error) *mocks.MockListener {
		l := mocks.NewMockListener(ctrl)
		l.EXPECT().AddHandler(gomock.Any()).Do(func(h transport.Handler) { handler = h })
		l.EXPECT().Activate().Return(nil)
		l.EXPECT().Deactivate().Return(deactivateErr)
		return l
	}
	factory.EXPECT().CreateListener("/ipaaca/channel/default/category/nlu").Return(newListener(errors.New("first")), nil)
	factory.EXPECT().CreateListener("/ipaaca/channel/default/category/"+shortName).Return(newListener(nil), nil)

	remote := mocks.NewMockRemoteServer(ctrl)
	factory.EXPECT().CreateRemoteServer(ownerB).Return(remote, nil)
	remote.EXPECT().Activate().Return(nil)
	remote.EXPECT().Call(gomock.Any(), gomock.Any(), gomock.Any()).Return(codec.MustEncode(&wire.RevisionReply{Revision: 1}), nil)
	remote.EXPECT().Deactivate().Return(errors.New("second"))

	b, err := New(factory, Config{OwningComponentName: "A", CategoryInterests: []string{"nlu"}, ResendActive: true},
		WithUniqueShortName(shortName))
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), wire.MustEncode(&wire.Commission{UID: "u", Writer: ownerB})))

	err = b.Close()
	require.Len(t, multierr.Errors(err), 2)
	require.ErrorContains(t, err, "first")
	require.ErrorContains(t, err, "second")
	require.NoError(t, b.Close())

	require.ErrorIs(t, b.AddCategoryInterest("asr"), ErrClosed)
	require.NoError(t, handler(context.Background(), wire.MustEncode(announcement("u1", nil))))
	require.Empty(t, b.Units())
}
