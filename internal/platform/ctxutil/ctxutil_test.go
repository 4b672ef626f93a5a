package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRequestDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	if GetRequestData(ctx) != nil || UserID(ctx) != uuid.Nil {
		t.Fatalf("empty context should carry no request data")
	}
	id := uuid.New()
	ctx = WithRequestData(ctx, &RequestData{UserID: id})
	if UserID(ctx) != id {
		t.Fatalf("user id not propagated")
	}
	ctx = WithTraceData(ctx, &TraceData{TraceID: "t", RequestID: "r"})
	if td := GetTraceData(ctx); td == nil || td.RequestID != "r" {
		t.Fatalf("trace data lost: %+v", td)
	}
}

func TestLogFields(t *testing.T) {
	if f := LogFields(context.Background()); len(f) != 0 {
		t.Fatalf("expected no fields, got %v", f)
	}
	uid, sid := uuid.New(), uuid.New()
	ctx := WithTraceData(context.Background(), &TraceData{RequestID: "req-1"})
	ctx = WithRequestData(ctx, &RequestData{UserID: uid, SessionID: sid})
	f := LogFields(ctx)
	want := []interface{}{"request_id", "req-1", "user_id", uid.String(), "session_id", sid.String()}
	if len(f) != len(want) {
		t.Fatalf("LogFields = %v", f)
	}
	for i := range want {
		if f[i] != want[i] {
			t.Fatalf("LogFields[%d] = %v, want %v", i, f[i], want[i])
		}
	}
}
