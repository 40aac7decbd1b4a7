package ipc

import (
	"bytes"
	"testing"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, FrameTypeControl, []byte("hello")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	ft, payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if ft != FrameTypeControl {
		t.Fatalf("expected FrameTypeControl, got %v", ft)
	}
	if string(payload) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", payload)
	}
}

func TestWriteReadFrameEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, FrameTypeData, nil); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	_, payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(payload) != 0 {
		t.Fatalf("expected empty payload, got %q", payload)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(byte(FrameTypeData))
	buf.Write([]byte{0x7F, 0xFF, 0xFF, 0xFF}) // absurd length, no payload follows
	if _, _, err := ReadFrame(&buf); err == nil {
		t.Fatalf("expected error for oversized frame length")
	}
}

func TestSendReadRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := &Request{Type: "attach", Name: "work", Cols: 100, Rows: 40}
	if err := SendRequest(&buf, req); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	got, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if got.Type != req.Type || got.Name != req.Name || got.Cols != req.Cols || got.Rows != req.Rows {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, req)
	}
}

func TestSendReadResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	resp := &Response{OK: true, Session: "work", Sessions: []string{"a", "b"}}
	if err := SendResponse(&buf, resp); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}
	got, err := ReadResponse(&buf)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got.OK != resp.OK || got.Session != resp.Session || len(got.Sessions) != 2 {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, resp)
	}
}

func TestHandshakeThenFramedStreamDoesNotOverread(t *testing.T) {
	var buf bytes.Buffer
	if err := SendRequest(&buf, &Request{Type: "attach", Name: "x"}); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := WriteFrame(&buf, FrameTypeData, []byte("keys")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	req, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if req.Name != "x" {
		t.Fatalf("expected name x, got %q", req.Name)
	}

	ft, payload, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame after handshake: %v", err)
	}
	if ft != FrameTypeData || string(payload) != "keys" {
		t.Fatalf("expected data frame %q, got type %v payload %q", "keys", ft, payload)
	}
}
