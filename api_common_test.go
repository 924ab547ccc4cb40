package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func testQueryContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

func TestQueryDateParsesBareDateAsMidnight(t *testing.T) {
	got := queryDate(testQueryContext(t, "from=2026-08-15"), "from")
	if got == nil {
		t.Fatal("expected a parsed date")
	}
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("queryDate = %s, want %s", got, want)
	}
}

func TestQueryEndDateBareDateCoversWholeDay(t *testing.T) {
	got := queryEndDate(testQueryContext(t, "to=2026-08-15"), "to")
	if got == nil {
		t.Fatal("expected a parsed date")
	}
	want := time.Date(2026, 8, 15, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !got.Equal(want) {
		t.Fatalf("queryEndDate = %s, want %s", got, want)
	}
}

func TestQueryEndDateTimestampPassesThrough(t *testing.T) {
	got := queryEndDate(testQueryContext(t, "to=2026-08-15T10:30:00Z"), "to")
	if got == nil {
		t.Fatal("expected a parsed timestamp")
	}
	want := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("queryEndDate = %s, want %s", got, want)
	}
}

func TestQueryEndDateMissingOrInvalidIsNil(t *testing.T) {
	if got := queryEndDate(testQueryContext(t, "from=2026-08-15"), "to"); got != nil {
		t.Fatalf("missing param parsed to %s", got)
	}
	if got := queryEndDate(testQueryContext(t, "to=yesterday"), "to"); got != nil {
		t.Fatalf("invalid param parsed to %s", got)
	}
}
