package processing

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/typetraits"
)

// DefaultPlanCacheSize is the number of type plans kept by a Registry.
const DefaultPlanCacheSize = 512

// Registry bundles the serialization and deserialization registrars with a
// cache of derived type traits.
type Registry struct {
	Serializers   *Registrar[SerializationProcessor]
	Deserializers *Registrar[DeserializationProcessor]

	plans *lru.Cache[reflect.Type, *typetraits.Traits]
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	planCacheSize int
}

// WithPlanCacheSize bounds the type plan cache.
func WithPlanCacheSize(n int) RegistryOption {
	return func(o *registryOptions) {
		if n > 0 {
			o.planCacheSize = n
		}
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	o := registryOptions{planCacheSize: DefaultPlanCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	plans, err := lru.New[reflect.Type, *typetraits.Traits](o.planCacheSize)
	if err != nil {
		return nil, csp.WrapError(csp.InvalidArgument, err, "create plan cache")
	}

	r := &Registry{
		Serializers:   NewRegistrar[SerializationProcessor](),
		Deserializers: NewRegistrar[DeserializationProcessor](),
		plans:         plans,
	}
	// Registered types change how traits are derived.
	r.Serializers.onChange = r.plans.Purge
	r.Deserializers.onChange = r.plans.Purge
	return r, nil
}

// DefaultRegistry is used by contexts created without a registry.
var DefaultRegistry = mustRegistry()

func mustRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// RegisterProcessor installs a processor pair for T.
func RegisterProcessor[T any](r *Registry, ser SerializationProcessor, des DeserializationProcessor) {
	t := reflect.TypeFor[T]()
	r.Serializers.Register(TypeKey(t), ser)
	r.Deserializers.Register(TypeKey(t), des)
}

// RegisterNamed installs a processor pair used by fields tagged
// `csp:",processor=<name>"`.
func (r *Registry) RegisterNamed(name string, ser SerializationProcessor, des DeserializationProcessor) {
	r.Serializers.Register(NameKey(name), ser)
	r.Deserializers.Register(NameKey(name), des)
}

// SerializerProvider returns the read side of the serialization registrar.
func (r *Registry) SerializerProvider() Provider[SerializationProcessor] {
	return NewProvider(r.Serializers)
}

// DeserializerProvider returns the read side of the deserialization registrar.
func (r *Registry) DeserializerProvider() Provider[DeserializationProcessor] {
	return NewProvider(r.Deserializers)
}

// TraitsOf returns the cached traits of t, deriving them on first use.
func (r *Registry) TraitsOf(t reflect.Type) (*typetraits.Traits, error) {
	if tr, ok := r.plans.Get(t); ok {
		return tr, nil
	}
	tr, err := typetraits.FromType(t, typetraits.WithCustomTypes(r.isCustom))
	if err != nil {
		return nil, err
	}
	r.plans.Add(t, tr)
	return tr, nil
}

// CachedPlans reports how many type plans are cached.
func (r *Registry) CachedPlans() int {
	return r.plans.Len()
}

// isCustom reports whether t is handled outside the general processor. A
// processor registered on either side is enough; the missing side fails
// with csp.NoSuchHandler instead of falling back to reflection.
func (r *Registry) isCustom(t reflect.Type) bool {
	if isSelfProcessing(t) {
		return true
	}
	if _, ok := r.Serializers.Find(TypeKey(t)); ok {
		return true
	}
	_, ok := r.Deserializers.Find(TypeKey(t))
	return ok
}
