package vtparse

import (
	"testing"
	"time"
)

type fakeSink struct {
	printed    []rune
	executed   []byte
	csi        [][]int
	csiSub     [][]bool
	csiFinal   []byte
	csiPrivate []byte
	osc        [][]byte
	apc        [][]byte
	rename     [][]byte
	dcsHook    [][]int
	dcsPut     []byte
	unhooked   int
}

func (f *fakeSink) Print(r rune)   { f.printed = append(f.printed, r) }
func (f *fakeSink) Execute(b byte) { f.executed = append(f.executed, b) }
func (f *fakeSink) ESCDispatch(intermediates []byte, final byte) {}
func (f *fakeSink) CSIDispatch(params []int, subParam []bool, intermediates []byte, private byte, final byte) {
	f.csi = append(f.csi, append([]int(nil), params...))
	f.csiSub = append(f.csiSub, append([]bool(nil), subParam...))
	f.csiFinal = append(f.csiFinal, final)
	f.csiPrivate = append(f.csiPrivate, private)
}
func (f *fakeSink) OSCDispatch(data []byte)    { f.osc = append(f.osc, data) }
func (f *fakeSink) APCDispatch(data []byte)    { f.apc = append(f.apc, data) }
func (f *fakeSink) RenameDispatch(data []byte) { f.rename = append(f.rename, data) }
func (f *fakeSink) DCSHook(params []int, intermediates []byte, final byte) {
	f.dcsHook = append(f.dcsHook, append([]int(nil), params...))
}
func (f *fakeSink) DCSPut(b byte) { f.dcsPut = append(f.dcsPut, b) }
func (f *fakeSink) DCSUnhook()    { f.unhooked++ }

func TestGroundPrintAndExecute(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("hi\tthere"), time.Now())
	if string(s.printed) != "hithere" {
		t.Fatalf("unexpected printed runes: %q", string(s.printed))
	}
	if len(s.executed) != 1 || s.executed[0] != '\t' {
		t.Fatalf("expected tab executed, got %v", s.executed)
	}
}

func TestCSIDispatchSGR(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1b[1;31m"), time.Now())
	if len(s.csi) != 1 {
		t.Fatalf("expected 1 CSI dispatch, got %d", len(s.csi))
	}
	if s.csiFinal[0] != 'm' {
		t.Fatalf("expected final byte 'm', got %q", s.csiFinal[0])
	}
	if len(s.csi[0]) != 2 || s.csi[0][0] != 1 || s.csi[0][1] != 31 {
		t.Fatalf("unexpected params: %v", s.csi[0])
	}
}

func TestCSIPrivateMarker(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1b[?25h"), time.Now())
	if len(s.csi) != 1 || s.csiPrivate[0] != '?' || s.csiFinal[0] != 'h' {
		t.Fatalf("unexpected dispatch: params=%v private=%q final=%q", s.csi, s.csiPrivate, s.csiFinal)
	}
	if s.csi[0][0] != 25 {
		t.Fatalf("unexpected param: %v", s.csi[0])
	}
}

func TestOSCDispatchWithBEL(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1b]0;mytitle\x07"), time.Now())
	if len(s.osc) != 1 || string(s.osc[0]) != "0;mytitle" {
		t.Fatalf("unexpected OSC dispatch: %v", s.osc)
	}
}

func TestOSCDispatchWithST(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1b]0;mytitle\x1b\\"), time.Now())
	if len(s.osc) != 1 || string(s.osc[0]) != "0;mytitle" {
		t.Fatalf("unexpected OSC dispatch via ST: %v", s.osc)
	}
}

func TestRenameStringDispatch(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1bkwindow-name\x07"), time.Now())
	if len(s.rename) != 1 || string(s.rename[0]) != "window-name" {
		t.Fatalf("unexpected rename dispatch: %v", s.rename)
	}
}

func TestDCSHookPutUnhook(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1bP1$rdata\x1b\\"), time.Now())
	if len(s.dcsHook) != 1 {
		t.Fatalf("expected 1 DCS hook, got %d", len(s.dcsHook))
	}
	if string(s.dcsPut) != "data" {
		t.Fatalf("unexpected DCS passthrough bytes: %q", string(s.dcsPut))
	}
	if s.unhooked != 1 {
		t.Fatalf("expected unhook to fire once, got %d", s.unhooked)
	}
}

func TestCANAbortsEscape(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1b[31\x18A"), time.Now())
	if len(s.csi) != 0 {
		t.Fatalf("expected CAN to abort the CSI sequence, got dispatch %v", s.csi)
	}
	if len(s.printed) != 1 || s.printed[0] != 'A' {
		t.Fatalf("expected 'A' printed in ground after abort, got %v", s.printed)
	}
}

func TestInactivityResetsToGround(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.SetInactivityTimeout(5 * time.Second)
	base := time.Now()
	p.Feed([]byte("\x1b[1"), base)
	if p.state == StateGround {
		t.Fatal("expected parser to be mid-sequence")
	}
	p.Tick(base.Add(6 * time.Second))
	if p.state != StateGround {
		t.Fatal("expected inactivity timeout to reset parser to ground")
	}
}

func TestCSIColonSubParamsTracked(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1b[38:2::10:20:30m"), time.Now())
	if len(s.csi) != 1 {
		t.Fatalf("expected 1 CSI dispatch, got %d", len(s.csi))
	}
	want := []int{38, 2, -1, 10, 20, 30}
	if len(s.csi[0]) != len(want) {
		t.Fatalf("unexpected params: %v", s.csi[0])
	}
	for i, v := range want {
		if s.csi[0][i] != v {
			t.Fatalf("param %d: got %d want %d (%v)", i, s.csi[0][i], v, s.csi[0])
		}
	}
	wantSub := []bool{false, true, true, true, true, true}
	for i, v := range wantSub {
		if s.csiSub[0][i] != v {
			t.Fatalf("subParam %d: got %v want %v (%v)", i, s.csiSub[0][i], v, s.csiSub[0])
		}
	}
}

func TestOmittedParamDefaultsToSentinel(t *testing.T) {
	s := &fakeSink{}
	p := New(s)
	p.Feed([]byte("\x1b[;5H"), time.Now())
	if len(s.csi) != 1 || len(s.csi[0]) != 2 {
		t.Fatalf("expected 2 params, got %v", s.csi)
	}
	if s.csi[0][0] != -1 || s.csi[0][1] != 5 {
		t.Fatalf("expected omitted first param as -1, got %v", s.csi[0])
	}
}
