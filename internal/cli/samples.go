package cli

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/andreygs/gocsp/pkg/csp"
	"github.com/andreygs/gocsp/pkg/csp/message"
	"github.com/andreygs/gocsp/pkg/csp/processing"
)

// sampleID identifies Sample on the wire.
var sampleID = uuid.MustParse("6f1c2d3e-8a9b-4c5d-9e0f-1a2b3c4d5e6f")

// Sample is the payload round-tripped by `gocsp bench` and answered by the
// built-in echo handler.
type Sample struct {
	ID       uint64
	Name     string
	Tags     []string
	Attrs    map[string]int32
	Position [3]float64
	Active   bool
	Parent   *Sample
}

func (Sample) CSPStructID() uuid.UUID                    { return sampleID }
func (Sample) CSPInterfaceVersion() csp.InterfaceVersion { return csp.SemanticVersion{Major: 1} }

// newSample builds the i-th bench payload.
func newSample(i int) Sample {
	return Sample{
		ID:       uint64(i),
		Name:     fmt.Sprintf("sample-%d", i),
		Tags:     []string{"bench", "csp"},
		Attrs:    map[string]int32{"index": int32(i), "parity": int32(i % 2)},
		Position: [3]float64{float64(i), -float64(i), 0.5},
		Active:   i%2 == 0,
	}
}

// knownTypes maps struct UUIDs the CLI can describe to their Go types.
var knownTypes = map[uuid.UUID]reflect.Type{
	sampleID: reflect.TypeFor[Sample](),
}

// registerSampleHandlers installs the echo handler for Sample. Requests are
// decoded with ctxOpts and answered with the same value, ID incremented.
func registerSampleHandlers(d *message.Dispatcher, ctxOpts ...processing.ContextOption) {
	d.Register(sampleID, Sample{}.CSPInterfaceVersion(), func(_ context.Context, req *message.DataMessage) (message.Serializable, error) {
		var s Sample
		if err := req.DecodeBody(&s, ctxOpts...); err != nil {
			return nil, err
		}
		s.ID++
		return s, nil
	})
}
