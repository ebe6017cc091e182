package ioutils

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestMaybeDecompress(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte("a;b\n1;2\n"))
	_ = zw.Close()

	for name, in := range map[string][]byte{"plain": []byte("a;b\n1;2\n"), "gzip": gz.Bytes()} {
		r, err := MaybeDecompress(bytes.NewReader(in))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		out, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(out) != "a;b\n1;2\n" {
			t.Fatalf("%s: got %q", name, out)
		}
	}
}

func TestCreateMaybeCompressed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.csv.gz")
	w, err := CreateMaybeCompressed(p)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte("hello"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	r, err := MaybeDecompress(f)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(r)
	if string(b) != "hello" {
		t.Fatalf("got %q", b)
	}
}
