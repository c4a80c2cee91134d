package predictlog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

func sampleRecord() Record {
	return Record{
		Timestamp:       time.Date(2025, 3, 4, 14, 5, 6, 0, time.Local),
		Doctor:          "Dr. A",
		Hour12:          "2:00 PM",
		DayOfWeek:       "Wed",
		DelayMins:       10,
		AppointmentType: "Checkup",
		Probability:     0.45,
		Suggestion:      "Recommend phone confirmation.",
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return rows
}

func TestRecordRow(t *testing.T) {
	row := sampleRecord().Row()
	want := []string{"2025-03-04 14:05:06", "Dr. A", "2:00 PM", "Wed", "10", "Checkup", "0.45", "Recommend phone confirmation."}
	if strings.Join(row, "|") != strings.Join(want, "|") {
		t.Errorf("Row() = %v, want %v", row, want)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.4449, 0.44},
		{0.456, 0.46},
		{0.3, 0.3},
		{0.999, 1.0},
		{0.0, 0.0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCSVLogCreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prediction_log.csv")
	log := NewCSVLog(path)

	if log.Exists() {
		t.Fatal("log should not exist before first append")
	}
	if err := log.Append(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !log.Exists() {
		t.Fatal("log should exist after append")
	}

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header = %v, want %v", rows[0], Header)
	}
	if rows[1][6] != "0.45" {
		t.Errorf("no_show_probability = %q, want %q", rows[1][6], "0.45")
	}
}

func TestCSVLogNRowsPlusHeader(t *testing.T) {
	for _, preexisting := range []bool{false, true} {
		name := "fresh file"
		if preexisting {
			name = "pre-existing file"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prediction_log.csv")
			before := 0
			if preexisting {
				if err := NewCSVLog(path).Append(context.Background(), sampleRecord()); err != nil {
					t.Fatalf("seed append: %v", err)
				}
				before = 1
			}

			// New instance to mimic a process restart.
			log := NewCSVLog(path)
			const n = 5
			for i := 0; i < n; i++ {
				if err := log.Append(context.Background(), sampleRecord()); err != nil {
					t.Fatalf("Append %d: %v", i, err)
				}
			}

			rows := readRows(t, path)
			if len(rows) != before+n+1 {
				t.Fatalf("got %d rows, want %d", len(rows), before+n+1)
			}
			headers := 0
			for _, r := range rows {
				if r[0] == "timestamp" {
					headers++
				}
			}
			if headers != 1 {
				t.Errorf("header appears %d times, want 1", headers)
			}
		})
	}
}

func TestCSVLogEmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prediction_log.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewCSVLog(path).Append(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rows := readRows(t, path); len(rows) != 2 || rows[0][0] != "timestamp" {
		t.Errorf("rows = %v", rows)
	}
}

func TestCSVLogConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prediction_log.csv")
	log := NewCSVLog(path)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := log.Append(context.Background(), sampleRecord()); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	if rows := readRows(t, path); len(rows) != n+1 {
		t.Errorf("got %d rows, want %d", len(rows), n+1)
	}
}

func TestCSVLogCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prediction_log.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewCSVLog(path).Append(ctx, sampleRecord()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("log should not be created for a cancelled request")
	}
}

type fakeExecer struct {
	calls []string
	args  [][]any
	err   error
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, sql)
	f.args = append(f.args, args)
	return pgconn.CommandTag{}, f.err
}

func TestPostgresSink(t *testing.T) {
	db := &fakeExecer{}
	sink, err := NewPostgresSink(context.Background(), db)
	if err != nil {
		t.Fatalf("NewPostgresSink: %v", err)
	}
	if len(db.calls) != 1 || !strings.Contains(db.calls[0], "CREATE TABLE IF NOT EXISTS prediction_log") {
		t.Fatalf("expected table creation, got %v", db.calls)
	}

	if err := sink.Append(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !strings.Contains(db.calls[1], "INSERT INTO prediction_log") {
		t.Errorf("expected insert, got %q", db.calls[1])
	}
	if got := db.args[1][6]; got != 0.45 {
		t.Errorf("probability arg = %v, want 0.45", got)
	}
}

func TestPostgresSinkErrors(t *testing.T) {
	db := &fakeExecer{err: errors.New("connection refused")}
	if _, err := NewPostgresSink(context.Background(), db); err == nil {
		t.Error("expected error when table creation fails")
	}

	sink := &PostgresSink{db: db}
	if err := sink.Append(context.Background(), sampleRecord()); err == nil {
		t.Error("expected error when insert fails")
	}
}

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func TestRedisSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewRedisSink(pub, "noshow:predictions")

	if err := sink.Append(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if pub.channel != "noshow:predictions" {
		t.Errorf("channel = %q", pub.channel)
	}

	var got map[string]any
	if err := json.Unmarshal(pub.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["doctor_id"] != "Dr. A" || got["no_show_probability"] != 0.45 {
		t.Errorf("payload = %v", got)
	}
}

func TestRedisSinkError(t *testing.T) {
	sink := NewRedisSink(&fakePublisher{err: errors.New("redis down")}, "c")
	if err := sink.Append(context.Background(), sampleRecord()); err == nil {
		t.Error("expected publish error")
	}
}
