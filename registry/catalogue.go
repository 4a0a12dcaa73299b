package registry

var (
	zero      = Entry{Literal: "0"}
	zeroFloat = Entry{Literal: "0.0"}
	null      = Entry{Literal: "nil"}
	composite = Entry{}
)

// catalogue is copied into every table returned by New.
var catalogue = map[Key]Entry{
	"bool":   {Literal: "false"},
	"string": {Literal: `""`},

	"int":     zero,
	"int8":    zero,
	"int16":   zero,
	"int32":   zero,
	"int64":   zero,
	"uint":    zero,
	"uint8":   zero,
	"uint16":  zero,
	"uint32":  zero,
	"uint64":  zero,
	"uintptr": zero,
	"byte":    zero,
	"rune":    zero,

	"float32":    zeroFloat,
	"float64":    zeroFloat,
	"complex64":  zero,
	"complex128": zero,

	"error": null,
	"any":   null,

	"time.Duration": zero,
	"time.Time":     composite,

	"sync.Mutex":     composite,
	"sync.RWMutex":   composite,
	"sync.Once":      composite,
	"sync.WaitGroup": composite,

	"sync/atomic.Bool":    composite,
	"sync/atomic.Int32":   composite,
	"sync/atomic.Int64":   composite,
	"sync/atomic.Uint32":  composite,
	"sync/atomic.Uint64":  composite,
	"sync/atomic.Uintptr": composite,
	"sync/atomic.Value":   composite,
	"sync/atomic.Pointer": {Generic: true},

	"container/list.List": composite,
	"strings.Builder":     composite,
	"bytes.Buffer":        composite,
}
