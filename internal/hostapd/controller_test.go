package hostapd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"remoteid-beacon/internal/remoteid"
)

type fakeProcess struct {
	signals []os.Signal
	failOn  os.Signal
}

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.signals = append(p.signals, sig)
	if p.failOn != nil && sig == p.failOn {
		return errors.New("no such process")
	}
	return nil
}

func (p *fakeProcess) count(sig os.Signal) int {
	n := 0
	for _, s := range p.signals {
		if s == sig {
			n++
		}
	}
	return n
}

type fakeSpawner struct {
	proc   *fakeProcess
	spawns []string
	err    error
}

func (s *fakeSpawner) Spawn(_ context.Context, confPath string) (Process, error) {
	s.spawns = append(s.spawns, confPath)
	if s.err != nil {
		return nil, s.err
	}
	return s.proc, nil
}

// failingReader yields data and then fails.
type failingReader struct {
	r   io.Reader
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF {
		return n, f.err
	}
	return n, err
}

func elementLines(t *testing.T, n int) []string {
	t.Helper()
	lines := make([]string, n)
	for i := range lines {
		line, err := remoteid.EncodeHex(remoteid.Record{
			UASID:    make(remoteid.ID, 30),
			Position: remoteid.Coordinate{Lon: 2.3522 + float64(i)*0.00001, Lat: 48.8566},
			Altitude: 35,
			Height:   float64(i),
		})
		if err != nil {
			t.Fatalf("EncodeHex: %v", err)
		}
		lines[i] = line
	}
	return lines
}

func newTestController(t *testing.T) (*Controller, *fakeSpawner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostapd.conf")
	sp := &fakeSpawner{proc: &fakeProcess{}}
	return NewController(DefaultSettings(), path, sp), sp, path
}

func TestControllerFirstLineSpawns(t *testing.T) {
	c, sp, path := newTestController(t)
	line := elementLines(t, 1)[0]

	if c.State() != NotStarted {
		t.Fatalf("initial state = %v", c.State())
	}
	if err := c.Update(context.Background(), line+"\n"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(sp.spawns) != 1 || sp.spawns[0] != path {
		t.Fatalf("spawns = %v, want one on %s", sp.spawns, path)
	}
	if len(sp.proc.signals) != 0 {
		t.Fatalf("unexpected signals on first update: %v", sp.proc.signals)
	}
	if c.State() != Running {
		t.Fatalf("state = %v, want running", c.State())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "\nvendor_elements="+line+"\n") {
		t.Fatalf("config missing vendor element:\n%s", data)
	}
}

func TestControllerRunReloads(t *testing.T) {
	c, sp, path := newTestController(t)
	lines := elementLines(t, 4)

	if err := c.Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sp.spawns) != 1 {
		t.Fatalf("spawns = %d, want 1", len(sp.spawns))
	}
	if got := sp.proc.count(ReloadSignal); got != 3 {
		t.Fatalf("reload signals = %d, want 3", got)
	}
	if got := sp.proc.count(StopSignal); got != 0 {
		t.Fatalf("stop signals = %d on clean end of input", got)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "vendor_elements="+lines[3]+"\n") {
		t.Fatalf("config does not hold the last element")
	}
	updates, reloads, skipped := c.Stats()
	if updates != 4 || reloads != 3 || skipped != 0 {
		t.Fatalf("stats = %d/%d/%d", updates, reloads, skipped)
	}
}

func TestControllerSkipsMalformedLines(t *testing.T) {
	c, sp, _ := newTestController(t)
	good := elementLines(t, 2)
	input := strings.Join([]string{
		"",
		"   ",
		"not-hex",
		"dd0411",       // declares 4 bytes, has 1
		"DD0411223301", // upper case is accepted
		good[0],
		"dd",
		good[1],
	}, "\n")

	if err := c.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	updates, reloads, skipped := c.Stats()
	if updates != 3 || reloads != 2 || skipped != 5 {
		t.Fatalf("stats = %d/%d/%d, want 3/2/5", updates, reloads, skipped)
	}
	if len(sp.spawns) != 1 {
		t.Fatalf("spawns = %d", len(sp.spawns))
	}
}

func TestControllerMalformedBeforeFirstDoesNotSpawn(t *testing.T) {
	c, sp, path := newTestController(t)
	if err := c.Run(context.Background(), strings.NewReader("zz\n\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sp.spawns) != 0 || c.State() != NotStarted {
		t.Fatalf("daemon spawned for malformed input")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("config written for malformed input: %v", err)
	}
}

func TestControllerStopsDaemonOnReadFailure(t *testing.T) {
	c, sp, _ := newTestController(t)
	lines := elementLines(t, 3)
	readErr := errors.New("pipe broken")
	r := &failingReader{r: strings.NewReader(strings.Join(lines, "\n") + "\n"), err: readErr}

	err := c.Run(context.Background(), r)
	if !errors.Is(err, readErr) {
		t.Fatalf("Run error = %v, want %v", err, readErr)
	}
	if got := sp.proc.count(StopSignal); got != 1 {
		t.Fatalf("stop signals = %d, want 1", got)
	}
	if got := sp.proc.count(ReloadSignal); got != 2 {
		t.Fatalf("reload signals = %d, want 2", got)
	}
}

func TestControllerStopsDaemonOnReloadFailure(t *testing.T) {
	c, sp, _ := newTestController(t)
	sp.proc.failOn = ReloadSignal

	err := c.Run(context.Background(), strings.NewReader(strings.Join(elementLines(t, 2), "\n")))
	if err == nil || !strings.Contains(err.Error(), "reload hostapd") {
		t.Fatalf("Run error = %v", err)
	}
	if got := sp.proc.count(StopSignal); got != 1 {
		t.Fatalf("stop signals = %d, want 1", got)
	}
}

func TestControllerSpawnFailure(t *testing.T) {
	c, sp, _ := newTestController(t)
	sp.err = errors.New("hostapd: not found")

	err := c.Run(context.Background(), strings.NewReader(elementLines(t, 1)[0]))
	if !errors.Is(err, sp.err) {
		t.Fatalf("Run error = %v", err)
	}
	if len(sp.proc.signals) != 0 {
		t.Fatalf("signals sent without a running daemon: %v", sp.proc.signals)
	}
}

func TestControllerStopsDaemonOnCancel(t *testing.T) {
	c, sp, _ := newTestController(t)
	if err := c.Update(context.Background(), elementLines(t, 1)[0]); err != nil {
		t.Fatalf("Update: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pr, pw := io.Pipe()
	defer pw.Close()

	if err := c.Run(ctx, pr); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v", err)
	}
	if got := sp.proc.count(StopSignal); got != 1 {
		t.Fatalf("stop signals = %d, want 1", got)
	}
}

func TestDaemonArgs(t *testing.T) {
	if got := (Daemon{}).Args("/tmp/h.conf"); len(got) != 1 || got[0] != "/tmp/h.conf" {
		t.Fatalf("args = %v", got)
	}
	got := (Daemon{Debug: true}).Args("/tmp/h.conf")
	if len(got) != 2 || got[0] != "-dd" || got[1] != "/tmp/h.conf" {
		t.Fatalf("debug args = %v", got)
	}
}

func TestControllerStatus(t *testing.T) {
	c, _, path := newTestController(t)
	st := c.Status()
	if st.State != "not_started" || st.ConfPath != path || st.LastRecord != nil {
		t.Fatalf("initial status = %+v", st)
	}

	lines := elementLines(t, 2)
	for _, l := range append(lines, "dd0411223301") {
		if err := c.Update(context.Background(), l); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	st = c.Status()
	if st.State != "running" || st.Updates != 3 || st.Reloads != 2 {
		t.Fatalf("status = %+v", st)
	}
	if st.LastElement != "dd0411223301" || st.LastRecord != nil {
		t.Fatalf("non remote id element reported as record: %+v", st)
	}

	if err := c.Update(context.Background(), lines[1]); err != nil {
		t.Fatalf("Update: %v", err)
	}
	st = c.Status()
	if st.LastRecord == nil || st.LastRecord.Height != 1 {
		t.Fatalf("last record = %+v", st.LastRecord)
	}
}

func TestControllerSkipsOverlongLine(t *testing.T) {
	c, sp, path := newTestController(t)
	good := elementLines(t, 2)
	input := good[0] + "\n" + strings.Repeat("a", 70000) + "\n" + good[1] + "\n"

	if err := c.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	updates, reloads, skipped := c.Stats()
	if updates != 2 || reloads != 1 || skipped != 1 {
		t.Fatalf("stats = %d/%d/%d, want 2/1/1", updates, reloads, skipped)
	}
	if got := sp.proc.count(StopSignal); got != 0 {
		t.Fatalf("stop signals = %d, want 0", got)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "vendor_elements="+good[1]+"\n") {
		t.Fatalf("line after the overlong one was not applied")
	}
}

func TestValidateElementsLength(t *testing.T) {
	// one IE: id, len, payload of n bytes
	ie := func(n int) string { return "dd" + fmt.Sprintf("%02x", n) + strings.Repeat("00", n) }
	fits := strings.Repeat(ie(255), MaxLineLen/len(ie(255)))
	if err := validateElements(fits); err != nil {
		t.Fatalf("%d characters rejected: %v", len(fits), err)
	}
	if err := validateElements(fits + ie(255)); !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("err = %v, want ErrMalformedLine", err)
	}
}

func TestControllerRunReleasesReader(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 10; i++ {
		c, sp, _ := newTestController(t)
		sp.proc.failOn = ReloadSignal
		input := strings.Join(elementLines(t, 5), "\n")
		if err := c.Run(context.Background(), strings.NewReader(input)); err == nil {
			t.Fatalf("expected reload failure")
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines before=%d after=%d", before, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestControllerStatusAfterSpawnFailure(t *testing.T) {
	c, sp, _ := newTestController(t)
	sp.err = errors.New("hostapd: not found")
	if err := c.Update(context.Background(), elementLines(t, 1)[0]); err == nil {
		t.Fatalf("expected spawn error")
	}
	st := c.Status()
	if st.State != "not_started" || st.Updates != 0 || st.LastElement != "" || st.LastRecord != nil {
		t.Fatalf("status after failed spawn = %+v", st)
	}
}

func TestControllerStatusAfterReloadFailure(t *testing.T) {
	c, sp, _ := newTestController(t)
	lines := elementLines(t, 2)
	if err := c.Update(context.Background(), lines[0]); err != nil {
		t.Fatalf("Update: %v", err)
	}
	sp.proc.failOn = ReloadSignal
	if err := c.Update(context.Background(), lines[1]); err == nil {
		t.Fatalf("expected reload error")
	}
	st := c.Status()
	if st.Updates != 1 || st.Reloads != 0 || st.LastElement != lines[0] {
		t.Fatalf("status after failed reload = %+v", st)
	}
}

func TestDaemonSpawnSignals(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	// hostapd stand-in: survives SIGHUP, exits on SIGINT.
	script := filepath.Join(t.TempDir(), "fake-hostapd.sh")
	body := "trap '' HUP\ntrap 'exit 0' INT\nwhile :; do sleep 0.05; done\n"
	if err := os.WriteFile(script, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	p, err := (Daemon{Bin: sh}).Spawn(context.Background(), script)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	proc, ok := p.(*os.Process)
	if !ok {
		t.Fatalf("process = %T, want *os.Process", p)
	}
	t.Cleanup(func() { _ = proc.Kill() })

	// give the shell time to install its traps
	time.Sleep(200 * time.Millisecond)
	if err := p.Signal(ReloadSignal); err != nil {
		t.Fatalf("reload signal: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := p.Signal(syscall.Signal(0)); err != nil {
		t.Fatalf("daemon gone after reload signal: %v", err)
	}

	if err := p.Signal(StopSignal); err != nil {
		t.Fatalf("stop signal: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		err := p.Signal(syscall.Signal(0))
		if errors.Is(err, os.ErrProcessDone) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("daemon still running after stop signal (last err %v)", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
