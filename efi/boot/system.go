package boot

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/efikit/efi/alloc"
	"github.com/joshuapare/efikit/efi/host"
	"github.com/joshuapare/efikit/internal/logger"
)

// MinRevision is the oldest firmware revision Init accepts (1.1).
const MinRevision = 1<<16 | 10

var (
	// ErrRevision indicates firmware older than MinRevision.
	ErrRevision = errors.New("boot: firmware revision too old")
	// ErrInitialized indicates Init was already called.
	ErrInitialized = errors.New("boot: already initialized")
)

var (
	current atomic.Pointer[System]

	setDefaultAllocator = alloc.SetDefault
)

// System is the state established by Init.
type System struct {
	st    host.SystemTable
	bs    *Services
	image *LoadedImage

	mu    sync.Mutex
	debug io.Writer
}

// Option configures Init.
type Option func(*options)

type options struct {
	debug func(*System) (io.Writer, error)
}

// WithDebugWriter installs a debug log created by fn once the system is
// otherwise ready, so fn may use every wrapper in this module. A failure is
// logged and leaves the debug log disabled.
func WithDebugWriter(fn func(*System) (io.Writer, error)) Option {
	return func(o *options) { o.debug = fn }
}

// Init records st as the running system, installs the default allocator over
// its pool and opens the debug log if requested. It must be called once,
// before anything else in this module.
func Init(st host.SystemTable, opts ...Option) (*System, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if rev := st.Revision(); rev < MinRevision {
		return nil, fmt.Errorf("%w: %d.%d", ErrRevision, rev>>16, rev&0xFFFF)
	}

	a := alloc.New(st.BootServices())
	sys := &System{
		st:    st,
		bs:    NewServices(st.BootServices(), a),
		image: NewLoadedImage(st.Image(), a),
	}
	if !current.CompareAndSwap(nil, sys) {
		return nil, ErrInitialized
	}
	setDefaultAllocator(a)

	if o.debug != nil {
		w, err := o.debug(sys)
		if err != nil {
			logger.Warn("boot: debug log disabled", "err", err)
		} else {
			sys.debug = w
		}
	}
	logger.Debug("boot: initialized", "revision", fmt.Sprintf("%d.%d", st.Revision()>>16, st.Revision()&0xFFFF))
	return sys, nil
}

// Current returns the system passed to Init. It panics before Init.
func Current() *System {
	sys := current.Load()
	if sys == nil {
		panic("boot: not initialized")
	}
	return sys
}

// Revision returns the firmware revision as (major << 16) | minor.
func (s *System) Revision() uint32 { return s.st.Revision() }

// BootServices returns the boot services wrapper.
func (s *System) BootServices() *Services { return s.bs }

// Image returns the running image.
func (s *System) Image() *LoadedImage { return s.image }

// Allocator returns the allocator installed by Init.
func (s *System) Allocator() *alloc.Allocator { return s.bs.a }

// DebugWriter returns the debug log, or nil when none is configured.
func (s *System) DebugWriter() io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debug
}

// Debugf writes one line to the debug log. It does nothing without one.
func (s *System) Debugf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debug == nil {
		return
	}
	if _, err := fmt.Fprintf(s.debug, format+"\n", args...); err != nil {
		logger.Warn("boot: debug write failed", "err", err)
	}
}
