package pagination

import (
	"errors"
	"testing"
)

func TestRoundTrip_LimitOffset(t *testing.T) {
	in := &LimitOffset{Offset: 300}
	out, err := Decode[LimitOffset](Encode(in))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out == nil || out.Offset != 300 {
		t.Fatalf("out=%+v want offset 300", out)
	}
}

func TestRoundTrip_LastUpdatedAtID(t *testing.T) {
	in := &LastUpdatedAtID{LastUpdatedAt: "2026-01-02T03:04:05Z", LastID: "00Q5f000001abcEAC"}
	out, err := Decode[LastUpdatedAtID](Encode(in))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out == nil || *out != *in {
		t.Fatalf("out=%+v want %+v", out, in)
	}
}

func TestRoundTrip_LastUpdatedAtNextOffset(t *testing.T) {
	for _, in := range []*LastUpdatedAtNextOffset{
		{LastUpdatedAt: "2026-01-02T03:04:05Z", NextOffset: "after-17"},
		{LastUpdatedAt: "2026-01-02T03:04:05Z"},
	} {
		out, err := Decode[LastUpdatedAtNextOffset](Encode(in))
		if err != nil {
			t.Fatalf("err=%v", err)
		}
		if out == nil || *out != *in {
			t.Fatalf("out=%+v want %+v", out, in)
		}
	}
}

func TestDecode_EmptyMeansNoPriorPosition(t *testing.T) {
	out, err := Decode[LastUpdatedAtID]("")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if out != nil {
		t.Fatalf("out=%+v want nil", out)
	}
}

func TestDecode_MalformedDegradesSafely(t *testing.T) {
	for _, token := range []string{"garbage-not-json", "!!!", "eyJvZmZzZXQiOn0"} {
		out, err := Decode[LimitOffset](token)
		if out != nil {
			t.Fatalf("token %q: out=%+v want nil", token, out)
		}
		if !errors.Is(err, ErrMalformedCursor) {
			t.Fatalf("token %q: err=%v want ErrMalformedCursor", token, err)
		}
	}
}

func TestEncode_NilYieldsEmpty(t *testing.T) {
	if got := Encode[LimitOffset](nil); got != "" {
		t.Fatalf("got=%q want empty", got)
	}
}
