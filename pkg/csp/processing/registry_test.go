package processing

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/typetraits"
)

// temperature keeps tenths of a degree and encodes itself as an int16.
type temperature struct {
	tenths int16
}

func (t temperature) MarshalCSP(ctx *SerializationContext) error {
	return WriteInteger(ctx, t.tenths)
}

func (t *temperature) UnmarshalCSP(ctx *DeserializationContext) error {
	v, err := ReadInteger[int16](ctx)
	t.tenths = v
	return err
}

type reading struct {
	Sensor string `csp:",charset=ascii"`
	Temp   temperature
	Temps  []temperature
}

func TestMarshalerRoundTrip(t *testing.T) {
	t.Parallel()

	in := reading{Sensor: "s1", Temp: temperature{215}, Temps: []temperature{{-10}, {0}}}
	out, data := roundTrip(t, 0, in)
	if diff := cmp.Diff(in, out, cmp.AllowUnexported(temperature{})); diff != "" {
		t.Errorf("round trip mismatch (-in +out):\n%s", diff)
	}

	want := []byte{
		0, 0, 0, 0, 0, 0, 0, 2, 's', '1',
		0x00, 0xd7,
		0, 0, 0, 0, 0, 0, 0, 2, 0xff, 0xf6, 0x00, 0x00,
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("wire mismatch (-want +got):\n%s", diff)
	}
}

type event struct {
	At    time.Time
	Delay int32 `csp:",processor=negate"`
}

func newEventRegistry(t *testing.T) *Registry {
	t.Helper()

	r, err := NewRegistry(WithPlanCacheSize(8))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	RegisterProcessor[time.Time](r,
		SerializeFunc(func(ctx *SerializationContext, v reflect.Value, _ *typetraits.Traits) error {
			return WriteInteger(ctx, v.Interface().(time.Time).Unix())
		}),
		DeserializeFunc(func(ctx *DeserializationContext, v reflect.Value, _ *typetraits.Traits) error {
			sec, err := ReadInteger[int64](ctx)
			if err != nil {
				return err
			}
			v.Set(reflect.ValueOf(time.Unix(sec, 0).UTC()))
			return nil
		}),
	)
	r.RegisterNamed("negate",
		SerializeFunc(func(ctx *SerializationContext, v reflect.Value, _ *typetraits.Traits) error {
			return WriteInteger(ctx, -v.Int())
		}),
		DeserializeFunc(func(ctx *DeserializationContext, v reflect.Value, _ *typetraits.Traits) error {
			n, err := ReadInteger[int64](ctx)
			if err != nil {
				return err
			}
			v.SetInt(-n)
			return nil
		}),
	)
	return r
}

func TestRegisteredProcessors(t *testing.T) {
	t.Parallel()

	r := newEventRegistry(t)
	in := event{At: time.Unix(1700000000, 0).UTC(), Delay: 5}
	out, data := roundTrip(t, 0, in, WithRegistry(r))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-in +out):\n%s", diff)
	}
	if len(data) != 16 {
		t.Errorf("body is %d octets, want 16", len(data))
	}
}

func TestMissingProcessor(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	_, err = serialize(0, event{}, WithRegistry(r))
	if csp.StatusOf(err) != csp.NoSuchHandler {
		t.Fatalf("got %v, want NoSuchHandler", err)
	}
	var cspErr *csp.Error
	if !errors.As(err, &cspErr) || cspErr.Info != "No specialized processor for negate" {
		t.Errorf("unexpected error info: %v", err)
	}
}

// countdown is decoded by a processor that exists only on the read side.
type countdown struct {
	Left int32
}

func TestDeserializerOnlyProcessor(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	r.Deserializers.Register(TypeKey(reflect.TypeFor[countdown]()),
		DeserializeFunc(func(ctx *DeserializationContext, v reflect.Value, _ *typetraits.Traits) error {
			n, err := ReadInteger[int8](ctx)
			v.Set(reflect.ValueOf(countdown{Left: 10 * int32(n)}))
			return err
		}))

	tr, err := r.TraitsOf(reflect.TypeFor[countdown]())
	if err != nil || tr.Kind != typetraits.KindCustom {
		t.Fatalf("TraitsOf: got %v, %v", tr, err)
	}

	var out countdown
	if err := deserialize(0, []byte{3}, &out, WithRegistry(r)); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if out.Left != 30 {
		t.Errorf("got %+v, want Left 30", out)
	}

	if _, err := serialize(0, countdown{Left: 1}, WithRegistry(r)); csp.StatusOf(err) != csp.NoSuchHandler {
		t.Errorf("serialize without a serializer: got %v, want NoSuchHandler", err)
	}
}

func TestPlanCache(t *testing.T) {
	t.Parallel()

	r := newEventRegistry(t)
	typ := reflect.TypeFor[event]()

	first, err := r.TraitsOf(typ)
	if err != nil {
		t.Fatalf("TraitsOf: %v", err)
	}
	second, _ := r.TraitsOf(typ)
	if first != second {
		t.Error("second lookup did not hit the cache")
	}
	if r.CachedPlans() != 1 {
		t.Errorf("CachedPlans: got %d, want 1", r.CachedPlans())
	}
	if first.Fields[0].Traits.Kind != typetraits.KindCustom {
		t.Errorf("time.Time field kind: got %s, want Custom", first.Fields[0].Traits.Kind)
	}

	r.Serializers.Unregister(TypeKey(reflect.TypeFor[time.Time]()))
	if r.CachedPlans() != 0 {
		t.Errorf("registry change must purge plans, %d left", r.CachedPlans())
	}
}

func TestRegistrar(t *testing.T) {
	t.Parallel()

	r := NewRegistrar[string]()
	r.Register(NameKey("b"), "second")
	r.Register(TypeKey(reflect.TypeFor[int32]()), "int")
	r.Register(NameKey("a"), "first")
	r.Register(NameKey("a"), "replaced")

	if r.Len() != 3 {
		t.Errorf("Len: got %d, want 3", r.Len())
	}
	if p, ok := r.Find(NameKey("a")); !ok || p != "replaced" {
		t.Errorf("Find(a): got %q, %v", p, ok)
	}

	var keys []string
	for _, k := range r.Keys() {
		keys = append(keys, k.String())
	}
	if diff := cmp.Diff([]string{"a", "b", "int32"}, keys); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}

	if !r.Unregister(NameKey("b")) || r.Unregister(NameKey("b")) {
		t.Error("Unregister should report presence exactly once")
	}

	_, err := NewProvider(r).Get(NameKey("missing"))
	if csp.StatusOf(err) != csp.NoSuchHandler {
		t.Errorf("Provider.Get: got %v, want NoSuchHandler", err)
	}
}

func TestRegistryConcurrentUse(t *testing.T) {
	t.Parallel()

	r := newEventRegistry(t)
	in := event{At: time.Unix(42, 0).UTC(), Delay: -3}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := range 50 {
				r.RegisterNamed(fmt.Sprintf("extra-%d-%d", i, j), SerializeFunc(nil), DeserializeFunc(nil))
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				out, _, err := tryRoundTrip(0, in, WithRegistry(r))
				if err != nil {
					errs <- err
					return
				}
				if !out.At.Equal(in.At) || out.Delay != in.Delay {
					errs <- fmt.Errorf("got %+v, want %+v", out, in)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if got := r.Serializers.Len(); got != 2+8*50 {
		t.Errorf("Serializers.Len: got %d, want %d", got, 2+8*50)
	}
}
