package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"remoteid-beacon/internal/remoteid"
)

func TestDecodeLines(t *testing.T) {
	el, err := remoteid.EncodeHex(remoteid.Record{
		Position: remoteid.Coordinate{Lon: 2.3522, Lat: 48.8566},
		Altitude: 35.1,
		Speed:    3,
		Course:   45,
	})
	if err != nil {
		t.Fatalf("EncodeHex: %v", err)
	}

	var out bytes.Buffer
	in := strings.NewReader("\n" + strings.ToUpper(el) + "\n")
	if err := decodeLines(in, &out); err != nil {
		t.Fatalf("decodeLines: %v", err)
	}
	var got decoded
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got.Element != el {
		t.Errorf("element = %s, want %s", got.Element, el)
	}
	if got.Record.Altitude != 35 || got.Record.Course != 45 {
		t.Errorf("record = %+v", got.Record)
	}
	want := []int{1, 4, 5, 6, 7, 8, 9, 10, 11}
	if len(got.Fields) != len(want) {
		t.Fatalf("fields = %v, want %v", got.Fields, want)
	}
	for i := range want {
		if got.Fields[i] != want[i] {
			t.Fatalf("fields = %v, want %v", got.Fields, want)
		}
	}
}

func TestDecodeLinesError(t *testing.T) {
	err := decodeLines(strings.NewReader("dd0411223301\n"), &bytes.Buffer{})
	if !errors.Is(err, remoteid.ErrBadOUI) {
		t.Fatalf("err = %v, want ErrBadOUI", err)
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("error does not name the line: %v", err)
	}
	if err := decodeLines(strings.NewReader("xyz"), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for non hex input")
	}
}
