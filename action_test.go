package statechart_test

import (
	"context"
	"slices"
	"testing"

	statechart "github.com/stateforward/go-statechart"
)

type Trace struct {
	sync  []string
	async []string
}

func (t *Trace) reset() {
	t.sync = []string{}
	t.async = []string{}
}

func (t *Trace) matches(expected Trace) bool {
	if expected.sync != nil && !slices.Equal(t.sync, expected.sync) {
		return false
	}
	if expected.async != nil && !slices.Equal(t.async, expected.async) {
		return false
	}
	return true
}

func TestActionOrder(t *testing.T) {
	trace := &Trace{}
	mockAction := func(name string) statechart.Action {
		return func(ctx *statechart.Context) *statechart.Async {
			trace.sync = append(trace.sync, name)
			return nil
		}
	}
	asyncAction := func(name string) statechart.Action {
		return func(ctx *statechart.Context) *statechart.Async {
			trace.sync = append(trace.sync, name)
			return ctx.PerformAsync(func(ctx *statechart.Context, args ...any) {
				trace.async = append(trace.async, args[0].(string))
				ctx.ResumeGotoState()
			}, name+".async")
		}
	}
	model := statechart.Define("actions",
		statechart.State("s",
			statechart.Entry(mockAction("s.entry")),
			statechart.Exit(mockAction("s.exit")),
			statechart.State("s1",
				statechart.Entry(mockAction("s1.entry")),
				statechart.Exit(mockAction("s1.exit")),
				statechart.State("s11",
					statechart.Entry(mockAction("s11.entry")),
					statechart.Exit(mockAction("s11.exit")),
				),
				statechart.Initial("s11"),
			),
			statechart.State("s2",
				statechart.Entry(mockAction("s2.entry")),
				statechart.Exit(mockAction("s2.exit")),
				statechart.State("s21",
					statechart.Entry(asyncAction("s21.entry")),
					statechart.Exit(mockAction("s21.exit")),
				),
				statechart.Initial("s21"),
			),
			statechart.Initial("s1"),
			statechart.Route("D", "s11 -> s21"),
			statechart.On("E", func(ctx *statechart.Context) bool {
				return ctx.GotoState("s1")
			}),
		),
		statechart.Initial("s"),
	)
	sc, _, _ := newStatechart(t, model)
	if !trace.matches(Trace{
		sync: []string{"s.entry", "s1.entry", "s11.entry"},
	}) {
		t.Fatal("initial actions are not correct", "trace", trace)
	}
	trace.reset()
	if !sc.SendEvent("D") {
		t.Fatal("expected D to be handled")
	}
	if !trace.matches(Trace{
		sync:  []string{"s11.exit", "s1.exit", "s2.entry", "s21.entry"},
		async: []string{"s21.entry.async"},
	}) {
		t.Fatal("transition actions are not correct", "trace", trace)
	}
	if !slices.Equal(sc.States(), []string{"/s/s2/s21"}) {
		t.Fatal("state is not correct", "states", sc.States())
	}
	trace.reset()
	if !sc.SendEvent("E") {
		t.Fatal("expected E to be handled")
	}
	if !trace.matches(Trace{
		sync:  []string{"s21.exit", "s2.exit", "s1.entry", "s11.entry"},
		async: []string{},
	}) {
		t.Fatal("transition actions are not correct", "trace", trace)
	}
	trace.reset()
	sc.Terminate()
	if len(sc.States()) != 0 {
		t.Fatal("state is not correct", "states", sc.States())
	}
	if !trace.matches(Trace{
		sync: []string{"s11.exit", "s1.exit", "s.exit"},
	}) {
		t.Fatal("terminate actions are not correct", "trace", trace)
	}
}

func TestSharedModel(t *testing.T) {
	model := statechart.Define("shared",
		statechart.State("foo"),
		statechart.State("bar"),
		statechart.Route("foo", "foo -> bar"),
		statechart.Route("bar", "bar -> foo"),
		statechart.Initial("foo"),
	)
	sc1, _, _ := newStatechart(t, model)
	sc2, _, _ := newStatechart(t, model)
	sc1.SendEvent("foo")
	if !slices.Equal(sc1.States(), []string{"/bar"}) {
		t.Fatal("state is not correct", "states", sc1.States())
	}
	if !slices.Equal(sc2.States(), []string{"/foo"}) {
		t.Fatal("expected the second statechart to be unaffected", "states", sc2.States())
	}
}

func noBehavior(ctx *statechart.Context) *statechart.Async {
	return nil
}

var benchModel = statechart.Define("bench",
	statechart.State("foo",
		statechart.Entry(noBehavior),
		statechart.Exit(noBehavior),
	),
	statechart.State("bar",
		statechart.Entry(noBehavior),
		statechart.Exit(noBehavior),
	),
	statechart.Route("foo", "foo -> bar"),
	statechart.Route("bar", "bar -> foo"),
	statechart.Initial("foo"),
)

func BenchmarkStatechart(b *testing.B) {
	sc, err := statechart.New(context.Background(), benchModel)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sc.Dispatch(statechart.NewEvent("foo"))
		sc.Dispatch(statechart.NewEvent("bar"))
	}
}

func nonStatechartLogic() func(event statechart.Event) bool {
	type state int
	const (
		foo state = iota
		bar
	)
	currentState := foo
	fooEntry := func(event statechart.Event) {}
	fooExit := func(event statechart.Event) {}
	barEntry := func(event statechart.Event) {}
	barExit := func(event statechart.Event) {}

	handleEvent := func(event statechart.Event) bool {
		switch currentState {
		case foo:
			if event.Name() == "foo" {
				fooExit(event)
				currentState = bar
				barEntry(event)
				return true
			}
		case bar:
			if event.Name() == "bar" {
				barExit(event)
				currentState = foo
				fooEntry(event)
				return true
			}
		}
		return false
	}
	fooEntry(nil)
	return handleEvent
}

func BenchmarkNonStatechart(b *testing.B) {
	handler := nonStatechartLogic()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !handler(statechart.NewEvent("foo")) {
			b.Fatal("event not handled")
		}
		if !handler(statechart.NewEvent("bar")) {
			b.Fatal("event not handled")
		}
	}
}
