package tendril_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/testutils"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/mapper"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nameKey  = domain.NewKey[string]("name")
	adminKey = domain.NewKey[bool]("admin")
	firstKey = domain.NewKey[string]("first")
	lastKey  = domain.NewKey[string]("last")
)

func userAdd(rec *testutils.Recorder) *domain.Command {
	return &domain.Command{
		Route: "user add|create",
		Arguments: []domain.Argument{
			domain.Positional("name", nameKey, mapper.StringKey),
			domain.PresenceFlag("admin", 'a', adminKey),
		},
		Handler: rec.Handler(),
	}
}

func newContext() *domain.CommandContext {
	return domain.NewCommandContext(context.Background())
}

func TestDispatcher_DispatchBindsArguments(t *testing.T) {
	rec := &testutils.Recorder{}
	d := tendril.New()
	require.NoError(t, d.Register(userAdd(rec)))

	cc := newContext()
	require.NoError(t, d.Dispatch(cc, "user create bob --admin"))

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "bob", domain.GetOr(calls[0], nameKey, ""))
	assert.True(t, domain.GetOr(calls[0], adminKey, false))

	cmd, ok := domain.Get(cc, domain.CommandKey)
	require.True(t, ok)
	assert.Equal(t, "user add|create", cmd.Route)
}

func TestDispatcher_SuggestAliases(t *testing.T) {
	d := tendril.New()
	require.NoError(t, d.Register(userAdd(&testutils.Recorder{})))

	assert.Equal(t, []string{"add", "create"}, d.Suggest(newContext(), "user a"))
	assert.Equal(t, []string{"user"}, d.Suggest(nil, ""))
	assert.Equal(t, []string{}, d.Suggest(newContext(), "user add bob "))
}

func TestDispatcher_RegistrationErrors(t *testing.T) {
	d := tendril.New()
	first := &domain.Command{Route: "ping", Handler: testutils.Nop}
	require.NoError(t, d.Register(first))

	t.Run("identical route", func(t *testing.T) {
		err := d.Register(&domain.Command{Route: "ping", Handler: testutils.Nop})

		var routing *domain.RoutingError
		require.ErrorAs(t, err, &routing)
		assert.Equal(t, domain.AmbiguousRoute, routing.Reason)

		var reg *domain.RegistrationError
		require.ErrorAs(t, err, &reg)
		assert.Equal(t, domain.RouteConflict, reg.Reason)
	})

	t.Run("batch continues past failures", func(t *testing.T) {
		good := &domain.Command{Route: "pong", Handler: testutils.Nop}
		err := d.Register(
			&domain.Command{Route: "", Handler: testutils.Nop},
			&domain.Command{Route: "nohandler"},
			good,
			&domain.Command{
				Route:     "broken",
				Arguments: []domain.Argument{domain.Positional("x", nameKey, domain.NewKey[string]("nope"))},
				Handler:   testutils.Nop,
			},
		)

		var agg *domain.AggregateError
		require.ErrorAs(t, err, &agg)
		require.Len(t, agg.Errors, 3)

		reasons := []domain.RegistrationReason{}
		for _, e := range agg.Errors {
			var reg *domain.RegistrationError
			require.ErrorAs(t, e, &reg)
			reasons = append(reasons, reg.Reason)
		}
		assert.Equal(t, []domain.RegistrationReason{domain.InvalidRoute, domain.InvalidCommand, domain.MissingMapper}, reasons)

		assert.Contains(t, d.Commands(), good)
		assert.Equal(t, []string{"ping", "pong"}, d.Suggest(nil, ""), "failed commands leave no trace in the graph")
	})
}

func TestDispatcher_RegistrationHandler(t *testing.T) {
	var seen []string
	hook := ports.RegistrationFuncs{
		Register: func(cmd *domain.Command) ports.Decision {
			seen = append(seen, cmd.Route)
			if cmd.Route == "secret" {
				return ports.Skip
			}
			return ports.Proceed
		},
		Unregister: func(cmd *domain.Command) ports.Decision {
			return ports.Skip
		},
	}

	d := tendril.New(tendril.WithRegistrationHandler(hook))
	visible := &domain.Command{Route: "visible", Handler: testutils.Nop}
	require.NoError(t, d.Register(&domain.Command{Route: "secret", Handler: testutils.Nop}, visible))

	assert.Equal(t, []string{"secret", "visible"}, seen)
	assert.Equal(t, []*domain.Command{visible}, d.Commands())

	require.NoError(t, d.Unregister(visible))
	assert.Len(t, d.Commands(), 1, "skipped removal keeps the command")
}

func TestDispatcher_Unregister(t *testing.T) {
	d := tendril.New()
	add := userAdd(&testutils.Recorder{})
	list := &domain.Command{Route: "user list", Handler: testutils.Nop}
	require.NoError(t, d.Register(add, list))

	require.NoError(t, d.Unregister(add))
	assert.Equal(t, []string{"list"}, d.Suggest(nil, "user x"))

	require.NoError(t, d.Unregister(list))
	assert.Equal(t, []string{}, d.Suggest(nil, ""), "empty branches are pruned")

	short := &domain.Command{Route: "user|u add", Handler: testutils.Nop}
	require.NoError(t, d.Register(list, short))
	require.NoError(t, d.Unregister(short))
	assert.Equal(t, []string{"user"}, d.Suggest(nil, ""), "aliases of removed commands are dropped")
	require.NoError(t, d.Unregister(list))

	err := d.Unregister(list)
	var reg *domain.RegistrationError
	require.ErrorAs(t, err, &reg)
	assert.Equal(t, domain.NotRegistered, reg.Reason)

	var routing *domain.RoutingError
	require.ErrorAs(t, d.Dispatch(nil, "user add bob"), &routing)
	assert.Equal(t, domain.NoSuchCommand, routing.Reason)
}

func TestDispatcher_Authorization(t *testing.T) {
	rec := &testutils.Recorder{}
	auth := ports.AuthorizerFunc(func(permission string, cc *domain.CommandContext) bool {
		return domain.GetOr(cc, domain.SubjectKey, "") == "root"
	})
	d := tendril.New(tendril.WithAuthorizer(auth))

	cmd := userAdd(rec)
	cmd.Permission = "user.add"
	require.NoError(t, d.Register(cmd, &domain.Command{Route: "whoami", Handler: rec.Handler()}))

	guest := newContext()
	domain.Replace(guest, domain.SubjectKey, "guest")

	var authErr *domain.AuthorizationError
	require.ErrorAs(t, d.Dispatch(guest, "user add bob"), &authErr)
	assert.Equal(t, "user.add", authErr.Permission)
	assert.False(t, guest.Has(nameKey), "arguments are not parsed for unauthorized callers")
	assert.Equal(t, []string{}, d.Suggest(guest, "user add -"))

	require.NoError(t, d.Dispatch(guest, "whoami"), "commands without permission are public")

	root := newContext()
	domain.Replace(root, domain.SubjectKey, "root")
	require.NoError(t, d.Dispatch(root, "user add bob"))
	assert.Equal(t, []string{"--admin", "-a"}, d.Suggest(root, "user add -"))
	assert.Len(t, rec.Calls(), 2)
}

func TestDispatcher_ParseFailures(t *testing.T) {
	rec := &testutils.Recorder{}
	d := tendril.New()
	require.NoError(t, d.Register(&domain.Command{
		Route: "rename",
		Arguments: []domain.Argument{
			domain.Positional("first", firstKey, mapper.StringKey),
			domain.Positional("last", lastKey, mapper.StringKey),
			domain.ValueFlag("name", 'n', nameKey, mapper.StringKey),
		},
		Handler: rec.Handler(),
	}))

	tests := []struct {
		line  string
		check func(t *testing.T, err error)
	}{
		{"rename a", func(t *testing.T, err error) {
			var syn *domain.SyntaxError
			require.ErrorAs(t, err, &syn)
			assert.Equal(t, domain.TooFewArguments, syn.Reason)
		}},
		{"rename a b c", func(t *testing.T, err error) {
			var syn *domain.SyntaxError
			require.ErrorAs(t, err, &syn)
			assert.Equal(t, domain.TooManyArguments, syn.Reason)
		}},
		{"rename a b --name x -n y", func(t *testing.T, err error) {
			var dup *domain.DuplicateFlagError
			assert.ErrorAs(t, err, &dup)
		}},
		{"renam a b", func(t *testing.T, err error) {
			var routing *domain.RoutingError
			require.ErrorAs(t, err, &routing)
			assert.Equal(t, "rename", routing.Closest)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tt.check(t, d.Dispatch(newContext(), tt.line))
		})
	}
	assert.Empty(t, rec.Calls(), "handlers never run after a parse failure")
}

func TestDispatcher_Conditions(t *testing.T) {
	rec := &testutils.Recorder{}
	d := tendril.New()
	require.NoError(t, d.Register(&domain.Command{
		Route:      "shutdown",
		Arguments:  []domain.Argument{domain.PresenceFlag("admin", 'a', adminKey)},
		Conditions: []domain.Condition{domain.Requires(adminKey)},
		Handler:    rec.Handler(),
	}))

	var condErr *domain.ConditionError
	require.ErrorAs(t, d.Dispatch(nil, "shutdown"), &condErr)
	assert.ErrorIs(t, condErr, domain.ErrKeyMissing)
	assert.Empty(t, rec.Calls())

	require.NoError(t, d.Dispatch(nil, "shutdown -a"))
	assert.Len(t, rec.Calls(), 1)
}

func TestDispatcher_HandlerError(t *testing.T) {
	rec := &testutils.Recorder{Err: errors.New("boom")}
	d := tendril.New()
	require.NoError(t, d.Register(&domain.Command{Route: "fail", Handler: rec.Handler()}))

	assert.EqualError(t, d.Dispatch(nil, "fail"), "boom")
}

func TestDispatcher_Async(t *testing.T) {
	release := make(chan struct{})
	var done atomic.Int32

	d := tendril.New(tendril.WithWorkerLimit(4))
	require.NoError(t, d.Register(&domain.Command{
		Route: "slow",
		Async: true,
		Handler: func(*domain.CommandContext) error {
			<-release
			done.Add(1)
			return errors.New("logged, not returned")
		},
	}))

	for range 3 {
		require.NoError(t, d.Dispatch(nil, "slow"), "dispatch returns before the handler finishes")
	}
	assert.Equal(t, int32(0), done.Load())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(3), done.Load())

	assert.ErrorIs(t, d.Dispatch(nil, "slow"), tendril.ErrClosed)
}

func TestDispatcher_AsyncDetachedContext(t *testing.T) {
	type ctxKey struct{}
	got := make(chan *domain.CommandContext, 1)

	d := tendril.New()
	require.NoError(t, d.Register(&domain.Command{
		Route:     "bg",
		Async:     true,
		Arguments: []domain.Argument{domain.Positional("name", nameKey, mapper.StringKey)},
		Handler: func(cc *domain.CommandContext) error {
			got <- cc
			return nil
		},
	}))

	parent, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	cc := domain.NewCommandContext(parent)
	require.NoError(t, d.Dispatch(cc, "bg bob"))
	cancel()

	select {
	case async := <-got:
		assert.NoError(t, async.Context().Err(), "cancelling the caller does not cancel async work")
		assert.Equal(t, "req-1", async.Context().Value(ctxKey{}))
		assert.Equal(t, cc.ID(), async.ID())
		assert.Equal(t, "bob", domain.GetOr(async, nameKey, ""))
	case <-time.After(5 * time.Second):
		t.Fatal("async handler did not run")
	}
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_CustomExecutor(t *testing.T) {
	var queued []func()
	exec := ports.ExecutorFunc(func(task func()) { queued = append(queued, task) })

	rec := &testutils.Recorder{}
	d := tendril.New(tendril.WithExecutor(exec))
	require.NoError(t, d.Register(&domain.Command{Route: "later", Async: true, Handler: rec.Handler()}))

	require.NoError(t, d.Dispatch(nil, "later"))
	assert.Empty(t, rec.Calls())
	require.Len(t, queued, 1)

	queued[0]()
	assert.Len(t, rec.Calls(), 1)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_LifecycleHooks(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, s)
	}

	hooks := domain.LifecycleHooks{
		OnRegister:   func(_ context.Context, e *domain.RegistrationEvent) { record("register:" + e.Route) },
		OnUnregister: func(_ context.Context, e *domain.RegistrationEvent) { record("unregister:" + e.Route) },
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			record(fmt.Sprintf("dispatch:%s:%v", e.Route, e.Err != nil))
		},
		OnSuggest: func(_ context.Context, e *domain.SuggestEvent) { record(fmt.Sprintf("suggest:%d", e.Count)) },
	}

	d := tendril.New(tendril.WithLifecycleHooks(hooks))
	cmd := &domain.Command{Route: "ping", Handler: testutils.Nop}
	require.NoError(t, d.Register(cmd))
	require.NoError(t, d.Dispatch(nil, "ping"))
	_ = d.Dispatch(nil, "pong")
	d.Suggest(nil, "")
	require.NoError(t, d.Unregister(cmd))

	assert.Equal(t, []string{
		"register:ping",
		"dispatch:ping:false",
		"dispatch::true",
		"suggest:1",
		"unregister:ping",
	}, events)
}

func TestDispatcher_SuggestIsSideEffectFree(t *testing.T) {
	d := tendril.New()
	require.NoError(t, d.Register(userAdd(&testutils.Recorder{})))

	before := d.Commands()
	cc := newContext()
	for _, line := range []string{"", "user", "user a", "user add b", "user add bob -", "user add bob --admin x"} {
		d.Suggest(cc, line)
	}
	assert.Equal(t, before, d.Commands())
	assert.Empty(t, cc.Snapshot())
}

func TestDispatcher_Syntax(t *testing.T) {
	d := tendril.New()
	require.NoError(t, d.Register(userAdd(&testutils.Recorder{})))

	assert.Equal(t, "user add <name> [-a|--admin]", d.Syntax("user create"))
	assert.Equal(t, "user <add>", d.Syntax("user"))
}

func TestDispatcher_ConcurrentRegistrationAndDispatch(t *testing.T) {
	d := tendril.New()
	require.NoError(t, d.Register(&domain.Command{Route: "ping", Handler: testutils.Nop}))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cmd := &domain.Command{Route: fmt.Sprintf("cmd%d", i), Handler: testutils.Nop}
			assert.NoError(t, d.Register(cmd))
			assert.NoError(t, d.Unregister(cmd))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Dispatch(nil, "ping"))
			d.Suggest(nil, "p")
		}()
	}
	wg.Wait()
	assert.Len(t, d.Commands(), 1)
}
