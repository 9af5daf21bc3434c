package snapshot

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	jsoniter "github.com/json-iterator/go"
)

type fakeS3 struct {
	inputs []*awss3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &awss3.PutObjectOutput{}, nil
}

func TestLocalSink_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "raw")
	sink := NewLocalSink(dir)

	loc, err := sink.Put(context.Background(), "coins_all_20250101.json", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if loc != filepath.Join(dir, "coins_all_20250101.json") {
		t.Errorf("location = %q", loc)
	}

	got, err := os.ReadFile(loc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("content = %s", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (no temp files left)", len(entries))
	}
}

func TestLocalSink_Overwrites(t *testing.T) {
	sink := NewLocalSink(t.TempDir())
	ctx := context.Background()

	if _, err := sink.Put(ctx, "x.json", []byte("first")); err != nil {
		t.Fatal(err)
	}
	loc, err := sink.Put(ctx, "x.json", []byte("second"))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(loc)
	if string(got) != "second" {
		t.Errorf("content = %s, want second", got)
	}
}

func TestS3Sink_Put(t *testing.T) {
	tests := []struct {
		prefix  string
		wantKey string
	}{
		{"", "coins_all_20250101.json"},
		{"dropstab/raw", "dropstab/raw/coins_all_20250101.json"},
		{"/dropstab/", "dropstab/coins_all_20250101.json"},
	}

	for _, tt := range tests {
		t.Run(tt.wantKey, func(t *testing.T) {
			fake := &fakeS3{}
			sink := NewS3SinkWithClient(fake, "snapshots", tt.prefix)

			loc, err := sink.Put(context.Background(), "coins_all_20250101.json", []byte("{}"))
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if loc != "s3://snapshots/"+tt.wantKey {
				t.Errorf("location = %q", loc)
			}
			in := fake.inputs[0]
			if *in.Bucket != "snapshots" || *in.Key != tt.wantKey {
				t.Errorf("bucket/key = %s/%s", *in.Bucket, *in.Key)
			}
			if *in.ContentType != "application/json" {
				t.Errorf("ContentType = %s", *in.ContentType)
			}
			if string(fake.bodies[0]) != "{}" {
				t.Errorf("body = %s", fake.bodies[0])
			}
		})
	}
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	if _, err := NewS3Sink(context.Background(), S3Config{}); err == nil {
		t.Error("expected error for empty bucket")
	}
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeS3{}
	w := NewWriter(NewLocalSink(dir), NewS3SinkWithClient(fake, "b", "p"))

	env := NewEnvelope("investors/{investorSlug}", time.Now(), jsoniter.RawMessage(`{"name":"x"}`))
	locs, err := w.Write(context.Background(), "investor_x_20250101.json", env)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("locations = %v, want 2", locs)
	}

	local, err := os.ReadFile(locs[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(local) != string(fake.bodies[0]) {
		t.Error("local and s3 copies differ")
	}

	var decoded struct {
		Items map[string]string `json:"items"`
	}
	if err := jsoniter.Unmarshal(local, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Items["name"] != "x" {
		t.Errorf("items = %v", decoded.Items)
	}
}

func TestWriter_StopsOnSinkError(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	w := NewWriter(NewLocalSink(t.TempDir()), NewS3SinkWithClient(fake, "b", ""))

	locs, err := w.Write(context.Background(), "x.json", NewEnvelope("coins", time.Now(), jsoniter.RawMessage(`[]`)))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(locs) != 1 {
		t.Errorf("locations = %v, want the local write only", locs)
	}
}

func TestWriter_NoSinks(t *testing.T) {
	if _, err := NewWriter().Write(context.Background(), "x.json", Envelope{}); err == nil {
		t.Error("expected error with no sinks")
	}
}
