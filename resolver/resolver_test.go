package resolver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/effectus/adaptation/factory"
	"github.com/effectus/adaptation/internal/testutils"
	"github.com/effectus/adaptation/protocol"
	"github.com/effectus/adaptation/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	*testutils.Fixtures
	registry *registry.Registry
	resolver *Resolver
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	fx := testutils.NewFixtures()
	r := registry.New()
	return &harness{
		Fixtures: fx,
		registry: r,
		resolver: New(fx.Catalog, r, opts),
	}
}

func (h *harness) register(t *testing.T, from, to *protocol.Type, marker string) *factory.Factory {
	t.Helper()
	f, err := h.registry.RegisterFactory(testutils.Wrap(to, marker), from, to)
	require.NoError(t, err)
	return f
}

func (h *harness) registerFunc(t *testing.T, from, to *protocol.Type, fn factory.ConvertFunc) *factory.Factory {
	t.Helper()
	f, err := h.registry.RegisterFactory(fn, from, to)
	require.NoError(t, err)
	return f
}

func TestNoAdapterRequired(t *testing.T) {
	h := newHarness(t, Options{})
	h.registerFunc(t, h.UKStandard, h.UKPlug, func(any) (any, error) {
		t.Fatal("converter must not run when no adaptation is needed")
		return nil, nil
	})

	plug := testutils.New(h.UKPlug)

	out, err := h.resolver.Resolve(plug, h.UKPlug)
	require.NoError(t, err)
	assert.Same(t, plug, out)

	out, err = h.resolver.Resolve(plug, h.UKStandard)
	require.NoError(t, err)
	assert.Same(t, plug, out)

	result, err := h.resolver.ResolveChain(plug, h.UKStandard)
	require.NoError(t, err)
	assert.Empty(t, result.Chain)
	assert.Equal(t, 0, result.Explored)
}

func TestNoAdapterAvailable(t *testing.T) {
	h := newHarness(t, Options{})
	plug := testutils.New(h.UKPlug)

	out, err := h.resolver.Resolve(plug, h.EUPlug)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = h.resolver.Resolve(plug, h.EUStandard)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = h.resolver.Resolve(nil, h.EUStandard)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = h.resolver.Resolve(plug, nil)
	assert.Error(t, err)
}

func TestOneStepAdaptation(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, h.UKStandard, h.EUStandard, "uk-to-eu")
	plug := testutils.New(h.UKPlug)

	out, err := h.resolver.Resolve(plug, h.EUStandard)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "uk-to-eu", testutils.Marker(out))
	assert.Same(t, plug, testutils.Unwrap(out, 1))

	// The adapter provides EUStandard, it is not an EUPlug
	out, err = h.resolver.Resolve(plug, h.EUPlug)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestAdapterChaining(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, h.UKStandard, h.EUStandard, "uk-to-eu")
	h.register(t, h.EUStandard, h.JapanStandard, "eu-to-japan")
	plug := testutils.New(h.UKPlug)

	result, err := h.resolver.ResolveChain(plug, h.JapanStandard)
	require.NoError(t, err)
	require.True(t, result.Found())
	assert.Equal(t, "eu-to-japan", testutils.Marker(result.Adapter))
	assert.Same(t, plug, testutils.Unwrap(result.Adapter, 2))
	assert.Len(t, result.Chain, 2)
	assert.Equal(t, Weight{Steps: 2}, result.Weight)
}

func TestShortestChainPreferred(t *testing.T) {
	h := newHarness(t, Options{})
	a := h.Catalog.MustDeclareInterface("chain.A")
	b := h.Catalog.MustDeclareInterface("chain.B")
	c := h.Catalog.MustDeclareInterface("chain.C")

	h.register(t, a, b, "a-to-b")
	h.register(t, b, c, "b-to-c")
	direct := h.register(t, a, c, "a-to-c")

	result, err := h.resolver.ResolveChain(testutils.New(a), c)
	require.NoError(t, err)
	assert.Equal(t, "a-to-c", testutils.Marker(result.Adapter))
	assert.Equal(t, []*factory.Factory{direct}, result.Chain)
}

func TestMultiplePathsUnambiguous(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, h.UKStandard, h.EUStandard, "uk-to-eu")
	h.register(t, h.EUStandard, h.JapanStandard, "eu-to-japan")
	h.register(t, h.JapanStandard, h.IraqStandard, "japan-to-iraq")
	h.register(t, h.EUStandard, h.IraqStandard, "eu-to-iraq")
	plug := testutils.New(h.UKPlug)

	out, err := h.resolver.Resolve(plug, h.IraqStandard)
	require.NoError(t, err)
	assert.Equal(t, "eu-to-iraq", testutils.Marker(out))
	assert.Same(t, plug, testutils.Unwrap(out, 2))
}

func TestMultiplePathsAmbiguous(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, h.UKStandard, h.EUStandard, "uk-to-eu")
	h.register(t, h.UKStandard, h.JapanStandard, "uk-to-japan")
	h.register(t, h.JapanStandard, h.IraqStandard, "japan-to-iraq")
	h.register(t, h.EUStandard, h.IraqStandard, "eu-to-iraq")
	plug := testutils.New(h.UKPlug)

	out, err := h.resolver.Resolve(plug, h.IraqStandard)
	require.NoError(t, err)
	assert.Contains(t, []string{"eu-to-iraq", "japan-to-iraq"}, testutils.Marker(out))
	assert.Same(t, plug, testutils.Unwrap(out, 2))

	// Equal weights are tried in registration order
	again, err := h.resolver.Resolve(plug, h.IraqStandard)
	require.NoError(t, err)
	assert.Equal(t, testutils.Marker(out), testutils.Marker(again))
}

func TestConditionalAdaptation(t *testing.T) {
	h := newHarness(t, Options{})
	h.registerFunc(t, h.TravelPlug, h.EUStandard, func(adaptee any) (any, error) {
		plug := adaptee.(*testutils.Object)
		if plug.Mode != "Europe" {
			return nil, nil
		}
		return &testutils.Object{Type: h.EUStandard, Adaptee: plug, Marker: "travel-to-eu"}, nil
	})

	europe := &testutils.Object{Type: h.TravelPlug, Mode: "Europe"}
	out, err := h.resolver.Resolve(europe, h.EUStandard)
	require.NoError(t, err)
	assert.Equal(t, "travel-to-eu", testutils.Marker(out))

	asia := &testutils.Object{Type: h.TravelPlug, Mode: "Asia"}
	out, err = h.resolver.Resolve(asia, h.EUStandard)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDeclinationIsNotFatal(t *testing.T) {
	h := newHarness(t, Options{})
	h.registerFunc(t, h.UKStandard, h.EUStandard, func(any) (any, error) { return nil, nil })
	h.register(t, h.UKStandard, h.EUStandard, "second-choice")

	out, err := h.resolver.Resolve(testutils.New(h.UKPlug), h.EUStandard)
	require.NoError(t, err)
	assert.Equal(t, "second-choice", testutils.Marker(out))
}

func TestSpilloverAdaptationBehavior(t *testing.T) {
	h := newHarness(t, Options{})
	editorAdapter := h.Catalog.MustDeclareClass("editors.FileTypeToIEditor",
		protocol.Provides(h.IEditor, h.IScriptable))

	h.register(t, h.FileType, editorAdapter, "file-to-editor")
	h.register(t, h.IScriptable, h.IUndoable, "scriptable-to-undoable")

	out, err := h.resolver.Resolve(testutils.New(h.FileType), h.IPrintable)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = h.resolver.Resolve(testutils.New(h.FileType), h.IUndoable)
	require.NoError(t, err)
	assert.Equal(t, "scriptable-to-undoable", testutils.Marker(out))
}

func TestAdaptationPrefersSubclasses(t *testing.T) {
	orders := map[string]bool{"subclass first": true, "subclass last": false}
	for name, subclassFirst := range orders {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, Options{})
			if subclassFirst {
				h.register(t, h.TextEditor, h.IPrintable, "text-editor")
				h.register(t, h.Editor, h.IPrintable, "editor")
			} else {
				h.register(t, h.Editor, h.IPrintable, "editor")
				h.register(t, h.TextEditor, h.IPrintable, "text-editor")
			}

			out, err := h.resolver.Resolve(testutils.New(h.TextEditor), h.IPrintable)
			require.NoError(t, err)
			assert.Equal(t, "text-editor", testutils.Marker(out))

			out, err = h.resolver.Resolve(testutils.New(h.Editor), h.IPrintable)
			require.NoError(t, err)
			assert.Equal(t, "editor", testutils.Marker(out))
		})
	}
}

func TestCircularAdaptationTerminates(t *testing.T) {
	h := newHarness(t, Options{})
	foo := h.Catalog.MustDeclareClass("circular.Foo")
	bar := h.Catalog.MustDeclareClass("circular.Bar")

	h.registerFunc(t, h.Catalog.Object(), foo, func(any) (any, error) {
		return testutils.New(foo), nil
	})
	h.registerFunc(t, foo, h.Catalog.Object(), func(any) (any, error) {
		return []any{}, nil
	})

	result, err := h.resolver.ResolveChain(struct{ name string }{"obj"}, bar)
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Positive(t, result.Explored)
}

func TestPreferSpecificInterfaces(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, h.IIntermediate, h.ITarget, "intermediate-to-target")
	h.register(t, h.IHuman, h.IIntermediate, "human")
	h.register(t, h.IChild, h.IIntermediate, "child")
	h.register(t, h.IPrimate, h.IIntermediate, "primate")

	out, err := h.resolver.Resolve(testutils.New(h.Source), h.ITarget)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "child", testutils.Marker(testutils.Unwrap(out, 1)))
}

func TestChainingWithIntermediateMROClimbing(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, h.IStart, h.ISpecific, "start-to-specific")
	h.register(t, h.IGeneric, h.IEnd, "generic-to-end")

	out, err := h.resolver.Resolve(testutils.New(h.Start), h.IEnd)
	require.NoError(t, err)
	assert.Equal(t, "generic-to-end", testutils.Marker(out))
}

func TestConditionalRecycling(t *testing.T) {
	h := newHarness(t, Options{})
	a := h.Catalog.MustDeclareClass("recycle.A")
	b := h.Catalog.MustDeclareClass("recycle.B")
	c := h.Catalog.MustDeclareClass("recycle.C")
	d := h.Catalog.MustDeclareClass("recycle.D")

	h.registerFunc(t, c, a, func(any) (any, error) {
		return &testutils.Object{Type: a, Allow: false}, nil
	})
	h.registerFunc(t, d, a, func(any) (any, error) {
		return &testutils.Object{Type: a, Allow: true}, nil
	})
	h.registerFunc(t, c, d, func(any) (any, error) {
		return testutils.New(d), nil
	})
	h.registerFunc(t, a, b, func(adaptee any) (any, error) {
		if !adaptee.(*testutils.Object).Allow {
			return nil, nil
		}
		return &testutils.Object{Type: b, Marker: "recycled"}, nil
	})

	result, err := h.resolver.ResolveChain(testutils.New(c), b)
	require.NoError(t, err)
	assert.Equal(t, "recycled", testutils.Marker(result.Adapter))
	assert.Len(t, result.Chain, 3)
}

func TestDeclaredTargetDecidesSuccess(t *testing.T) {
	h := newHarness(t, Options{})
	// Declared to produce EUStandard, actually produces something that is
	// also a JapanStandard
	h.registerFunc(t, h.UKStandard, h.EUStandard, func(adaptee any) (any, error) {
		return &testutils.Object{Type: h.JapanPlug, Adaptee: adaptee, Marker: "multi"}, nil
	})

	out, err := h.resolver.Resolve(testutils.New(h.UKPlug), h.JapanStandard)
	require.NoError(t, err)
	assert.Nil(t, out)

	// A factory declaring the requested protocol is still found past it
	h.register(t, h.EUStandard, h.JapanStandard, "eu-to-japan")
	result, err := h.resolver.ResolveChain(testutils.New(h.UKPlug), h.JapanStandard)
	require.NoError(t, err)
	assert.Equal(t, "eu-to-japan", testutils.Marker(result.Adapter))
	assert.Len(t, result.Chain, 2)
	assert.Equal(t, "multi", testutils.Marker(testutils.Unwrap(result.Adapter, 1)))
}

func TestFactoryErrorsPropagate(t *testing.T) {
	h := newHarness(t, Options{})
	boom := errors.New("adapter exploded")
	h.registerFunc(t, h.UKStandard, h.EUStandard, func(any) (any, error) { return nil, boom })
	h.register(t, h.UKStandard, h.EUStandard, "never-reached")

	out, err := h.resolver.Resolve(testutils.New(h.UKPlug), h.EUStandard)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "plugs.UKStandard")
	assert.Nil(t, out)
}

func TestConfigErrorsPropagate(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.registry.Register(factory.NewDeferred(
		"plugs.UKStandard", "plugs.EUStandard", "plugs.Unregistered",
		h.Catalog, factory.NewConverterTable())))

	_, err := h.resolver.Resolve(testutils.New(h.UKPlug), h.EUStandard)
	require.Error(t, err)
	assert.True(t, factory.IsConfigError(err))
	assert.ErrorIs(t, err, factory.ErrUnknownSymbol)
}

func TestDeferredFactoryResolvesLazily(t *testing.T) {
	h := newHarness(t, Options{})
	table := factory.NewConverterTable()
	f := factory.NewDeferred("plugs.UKStandard", "plugs.EUStandard", "plugs.UKToEU", h.Catalog, table)
	require.NoError(t, h.registry.Register(f))

	// The converter may be registered any time before first use
	table.MustRegister("plugs.UKToEU", testutils.Wrap(h.EUStandard, "lazy"))

	out, err := h.resolver.Resolve(testutils.New(h.UKPlug), h.EUStandard)
	require.NoError(t, err)
	assert.Equal(t, "lazy", testutils.Marker(out))
}

func TestExplorationLimit(t *testing.T) {
	h := newHarness(t, Options{MaxExplored: 2})
	for i := 0; i < 5; i++ {
		h.registerFunc(t, h.UKStandard, h.EUStandard, func(any) (any, error) { return nil, nil })
	}

	result, err := h.resolver.ResolveChain(testutils.New(h.UKPlug), h.EUStandard)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExplorationLimit)
	assert.Equal(t, 2, result.Explored)

	unbounded := New(h.Catalog, h.registry, Options{})
	result, err = unbounded.ResolveChain(testutils.New(h.UKPlug), h.EUStandard)
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Equal(t, 5, result.Explored)
}

func TestEndToEndFlight(t *testing.T) {
	h := newHarness(t, Options{})
	h.registerFunc(t, h.DuckClass, h.Flyable, factory.Func(func(d *testutils.Duck) *testutils.Wings {
		return &testutils.Wings{Of: d.Name}
	}))
	h.registerFunc(t, h.PlaneClass, h.Flyable, factory.Func(func(p *testutils.Plane) *testutils.Wings {
		return &testutils.Wings{Of: p.Model}
	}))

	duck := &testutils.Duck{Name: "mallard"}
	plane := &testutils.Plane{Model: "glider"}

	duckFlyer, err := h.resolver.Resolve(duck, h.Flyable)
	require.NoError(t, err)
	planeFlyer, err := h.resolver.Resolve(plane, h.Flyable)
	require.NoError(t, err)

	require.Implements(t, (*testutils.Flyer)(nil), duckFlyer)
	require.Implements(t, (*testutils.Flyer)(nil), planeFlyer)
	assert.NotSame(t, duckFlyer, planeFlyer)
	assert.Equal(t, "mallard flies", duckFlyer.(testutils.Flyer).Fly())
	assert.True(t, protocol.Satisfies(h.Catalog.TypeOf(duckFlyer), h.Flyable))

	swimmer, err := h.resolver.Resolve(duck, h.Swimmable)
	require.NoError(t, err)
	assert.Nil(t, swimmer)
}

func TestGoImplementationSatisfiesDirectly(t *testing.T) {
	h := newHarness(t, Options{})
	wings := &testutils.Wings{Of: "kite"}

	out, err := h.resolver.Resolve(wings, h.Flyable)
	require.NoError(t, err)
	assert.Same(t, wings, out)
}

func TestCachedConverterInChain(t *testing.T) {
	h := newHarness(t, Options{})
	cached := factory.Cached(func(d *testutils.Duck) (any, error) {
		return &testutils.Wings{Of: d.Name}, nil
	})
	h.registerFunc(t, h.DuckClass, h.Flyable, cached.Func())

	duck := &testutils.Duck{Name: "teal"}
	first, err := h.resolver.Resolve(duck, h.Flyable)
	require.NoError(t, err)
	second, err := h.resolver.Resolve(duck, h.Flyable)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := h.resolver.Resolve(&testutils.Duck{Name: "teal"}, h.Flyable)
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestPlan(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, h.UKStandard, h.EUStandard, "uk-to-eu")
	euToJapan := h.register(t, h.EUStandard, h.JapanStandard, "eu-to-japan")
	h.register(t, h.JapanStandard, h.IraqStandard, "japan-to-iraq")
	euToIraq := h.register(t, h.EUStandard, h.IraqStandard, "eu-to-iraq")

	chain, found, err := h.resolver.Plan(h.UKPlug, h.IraqStandard)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, chain, 2)
	assert.Same(t, euToIraq, chain[1])

	chain, found, err = h.resolver.Plan(h.EUPlug, h.JapanStandard)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []*factory.Factory{euToJapan}, chain)

	chain, found, err = h.resolver.Plan(h.UKPlug, h.UKStandard)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, chain)

	_, found, err = h.resolver.Plan(h.UKPlug, h.TravelPlug)
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = h.resolver.Plan(nil, h.UKPlug)
	assert.Error(t, err)
}

func TestPlanTerminatesOnCycles(t *testing.T) {
	h := newHarness(t, Options{})
	h.register(t, h.UKStandard, h.EUStandard, "uk-to-eu")
	h.register(t, h.EUStandard, h.UKStandard, "eu-to-uk")

	_, found, err := h.resolver.Plan(h.UKPlug, h.IraqStandard)
	require.NoError(t, err)
	assert.False(t, found)
}

func ExampleResolver_Resolve() {
	catalog := protocol.NewCatalog()
	uk := catalog.MustDeclareInterface("UKStandard")
	eu := catalog.MustDeclareInterface("EUStandard")
	plug := catalog.MustDeclareClass("UKPlug", protocol.Provides(uk))

	reg := registry.New()
	_, _ = reg.RegisterFactory(testutils.Wrap(eu, "uk-to-eu"), uk, eu)

	r := New(catalog, reg, Options{})
	adapter, _ := r.Resolve(testutils.New(plug), eu)
	fmt.Println(adapter)
	// Output: EUStandard(uk-to-eu)
}
