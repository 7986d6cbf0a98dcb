// Package led mirrors scene pixels onto a physical NRZ LED strip (WS2812 and
// friends) over SPI, or onto the terminal when no strip is attached.
package led

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-promptviz/internal/model"
	"github.com/coreman2200/funtimes-promptviz/internal/render"
)

const (
	DriverNone   = "none"
	DriverScreen = "screen"
	DriverSPI    = "spi"
)

type Options struct {
	Driver        string
	Port          string // spireg name; empty picks the first port
	Pixels        int
	FreqKHz       int
	MaxBrightness uint8
}

// Strip is a render.Driver that paints frame pixels on a display.Drawer.
type Strip struct {
	mu     sync.Mutex
	drawer display.Drawer
	port   spi.PortCloser
	img    *image.NRGBA
	limit  uint8
}

// Open builds the strip the options ask for. A missing SPI port degrades to
// the terminal renderer, as does a failed host init. DriverNone returns nil.
func Open(opts Options, log zerolog.Logger) (*Strip, error) {
	if opts.Pixels < 1 {
		return nil, fmt.Errorf("strip needs at least one pixel, got %d", opts.Pixels)
	}
	switch opts.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverScreen:
		return New(screen.New(opts.Pixels), opts.Pixels, opts.MaxBrightness), nil
	case DriverSPI:
	default:
		return nil, fmt.Errorf("unknown strip driver %q", opts.Driver)
	}

	log = log.With().Str("component", "strip").Logger()
	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("periph host init failed; printing at the console")
		return New(screen.New(opts.Pixels), opts.Pixels, opts.MaxBrightness), nil
	}
	p, err := spireg.Open(opts.Port)
	if err != nil {
		log.Warn().Err(err).Str("port", opts.Port).Msg("no SPI port; printing at the console")
		return New(screen.New(opts.Pixels), opts.Pixels, opts.MaxBrightness), nil
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: opts.Pixels,
		Channels:  3,
		Freq:      physic.Frequency(opts.FreqKHz) * physic.KiloHertz,
	})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("nrzled on %s: %w", p, err)
	}
	if err := d.Halt(); err != nil {
		log.Debug().Err(err).Msg("initial halt")
	}
	log.Info().Str("port", p.String()).Int("pixels", opts.Pixels).Msg("LED strip ready")

	s := New(d, opts.Pixels, opts.MaxBrightness)
	s.port = p
	return s, nil
}

// New wraps an existing drawer. limit caps the brightness byte.
func New(d display.Drawer, pixels int, limit uint8) *Strip {
	if pixels < 1 {
		pixels = 1
	}
	return &Strip{
		drawer: d,
		img:    image.NewNRGBA(image.Rect(0, 0, pixels, 1)),
		limit:  limit,
	}
}

func (s *Strip) String() string { return s.drawer.String() }

// Write paints frame.Pixels, repeating them across the strip when the frame
// carries fewer pixels than the strip has. Frames without pixels are ignored.
func (s *Strip) Write(f render.Frame) error {
	if len(f.Pixels) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.img.Rect.Dx()
	for i := 0; i < n; i++ {
		p := f.Pixels[i%len(f.Pixels)]
		s.img.SetNRGBA(i, 0, model.NewColorRGBA(p.R, p.G, p.B, p.A).Scaled(s.limit))
	}
	if err := s.drawer.Draw(s.drawer.Bounds(), s.img, image.Point{}); err != nil {
		return fmt.Errorf("draw strip: %w", err)
	}
	return nil
}

// Image returns a copy of the last painted pixels.
func (s *Strip) Image() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewNRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}

// Close blanks the strip and releases the port.
func (s *Strip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.drawer.Halt()
	if s.port != nil {
		err = errors.Join(err, s.port.Close())
		s.port = nil
	}
	return err
}
