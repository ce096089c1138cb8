package hostapd

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"remoteid-beacon/internal/logging"
	"remoteid-beacon/internal/remoteid"
)

// ErrMalformedLine marks an input line that is not a hex dump of
// information elements. Such lines are skipped.
var ErrMalformedLine = errors.New("malformed vendor element line")

// MaxLineLen is the longest element dump accepted. hostapd reads its
// configuration through a 4096 byte line buffer that also holds the
// "vendor_elements=" key and the newline.
const MaxLineLen = 4096 - len("vendor_elements=") - 2

// Signals sent to the daemon.
var (
	ReloadSignal os.Signal = syscall.SIGHUP
	StopSignal   os.Signal = syscall.SIGINT
)

// State of the daemon owned by a Controller.
type State int

const (
	NotStarted State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "not_started"
}

// Controller owns the hostapd lifecycle. The first vendor element spawns the
// daemon on the rendered configuration; every later one rewrites the file and
// asks the running daemon to reload it.
type Controller struct {
	settings Settings
	confPath string
	spawner  Spawner

	mu      sync.Mutex
	proc    Process
	updates int
	reloads int
	skipped int
	last    string
	lastAt  time.Time
	lastRec *remoteid.Record
}

// Status is a point-in-time view of a Controller.
type Status struct {
	State       string           `json:"state"`
	ConfPath    string           `json:"conf_path"`
	Updates     int              `json:"updates"`
	Reloads     int              `json:"reloads"`
	Skipped     int              `json:"skipped"`
	LastElement string           `json:"last_element,omitempty"`
	LastUpdate  time.Time        `json:"last_update,omitempty"`
	LastRecord  *remoteid.Record `json:"last_record,omitempty"`
}

// NewController creates a controller writing its configuration to confPath.
func NewController(settings Settings, confPath string, spawner Spawner) *Controller {
	return &Controller{settings: settings, confPath: confPath, spawner: spawner}
}

// State reports whether the daemon has been spawned.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *Controller) state() State {
	if c.proc == nil {
		return NotStarted
	}
	return Running
}

// Stats returns the number of applied updates, reloads and skipped lines.
func (c *Controller) Stats() (updates, reloads, skipped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates, c.reloads, c.skipped
}

// ConfPath is the configuration file the controller renders.
func (c *Controller) ConfPath() string { return c.confPath }

// Status returns a snapshot safe to read from other goroutines.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:       c.state().String(),
		ConfPath:    c.confPath,
		Updates:     c.updates,
		Reloads:     c.reloads,
		Skipped:     c.skipped,
		LastElement: c.last,
		LastUpdate:  c.lastAt,
		LastRecord:  c.lastRec,
	}
}

// Update applies one input line.
func (c *Controller) Update(ctx context.Context, line string) error {
	log := logging.FromContext(ctx)
	elems := strings.ToLower(strings.TrimSpace(line))
	if err := validateElements(elems); err != nil {
		return err
	}
	rec, recErr := remoteid.DecodeHex(elems)
	if recErr == nil {
		log.Debug("remote id element", "lat", rec.Position.Lat, "lon", rec.Position.Lon, "alt", rec.Altitude, "height", rec.Height)
	}

	if err := WriteFile(c.confPath, Render(c.settings, elems)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proc == nil {
		p, err := c.spawner.Spawn(ctx, c.confPath)
		if err != nil {
			return fmt.Errorf("spawn hostapd: %w", err)
		}
		c.proc = p
	} else {
		if err := c.proc.Signal(ReloadSignal); err != nil {
			return fmt.Errorf("reload hostapd: %w", err)
		}
		c.reloads++
		log.Debug("hostapd reload requested", "reloads", c.reloads)
	}

	c.updates++
	c.last, c.lastAt = elems, time.Now().UTC()
	c.lastRec = nil
	if recErr == nil {
		c.lastRec = &rec
	}
	return nil
}

// Stop asks a running daemon to shut down. It is a no-op before the first
// update.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	proc := c.proc
	c.mu.Unlock()
	if proc == nil {
		return nil
	}
	logging.FromContext(ctx).Info("stopping hostapd")
	if err := proc.Signal(StopSignal); err != nil {
		return fmt.Errorf("stop hostapd: %w", err)
	}
	return nil
}

// Run applies every line read from r until r is exhausted, ctx is done or an
// update fails. Malformed lines are logged and skipped. On any error the
// daemon is sent StopSignal before the error is returned; reaching the end of
// the input leaves it running.
func (c *Controller) Run(ctx context.Context, r io.Reader) (err error) {
	log := logging.FromContext(ctx)
	defer func() {
		if err == nil {
			return
		}
		if serr := c.Stop(ctx); serr != nil {
			err = errors.Join(err, serr)
		}
	}()

	// Releases the reader goroutine when an update fails.
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		readErr <- readLines(readCtx, r, lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err := <-readErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				updates, reloads, skipped := c.Stats()
				log.Info("input closed", "updates", updates, "reloads", reloads, "skipped", skipped)
				return nil
			}
			if err := c.Update(ctx, line); err != nil {
				if errors.Is(err, ErrMalformedLine) {
					c.mu.Lock()
					c.skipped++
					c.mu.Unlock()
					log.Warn("skipping input line", "err", err)
					continue
				}
				return err
			}
		}
	}
}

// readLines sends every line of r, without its line ending, until r is
// exhausted or ctx is done. Lines have no length limit here; Update rejects
// the ones hostapd could not read.
func readLines(ctx context.Context, r io.Reader, lines chan<- string) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			select {
			case lines <- strings.TrimRight(line, "\r\n"):
			case <-ctx.Done():
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// validateElements accepts a non-empty hex dump of one or more complete
// [id][len][payload] information elements.
func validateElements(line string) error {
	if line == "" {
		return fmt.Errorf("%w: empty", ErrMalformedLine)
	}
	if len(line) > MaxLineLen {
		return fmt.Errorf("%w: %d characters, limit %d", ErrMalformedLine, len(line), MaxLineLen)
	}
	b, err := hex.DecodeString(line)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	for len(b) > 0 {
		if len(b) < 2 || len(b) < 2+int(b[1]) {
			return fmt.Errorf("%w: truncated element", ErrMalformedLine)
		}
		b = b[2+int(b[1]):]
	}
	return nil
}
