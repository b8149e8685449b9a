package kernel

import (
	"sync"
	"testing"
)

func TestByteRingGetEmpty(t *testing.T) {
	var r ByteRing

	_, ok := r.Get()
	if ok {
		t.Fatalf("Get() ok = true, want false")
	}
}

func TestByteRingPutFull(t *testing.T) {
	var r ByteRing

	for i := 0; i < byteRingSlots; i++ {
		if ok := r.Put(byte(i)); !ok {
			t.Fatalf("Put() ok = false at slot %d, want true", i)
		}
	}
	if ok := r.Put(0xFF); ok {
		t.Fatalf("Put() ok = true when full, want false")
	}
	if r.Drops() != 1 {
		t.Fatalf("Drops() = %d, want 1", r.Drops())
	}

	for i := 0; i < byteRingSlots; i++ {
		b, ok := r.Get()
		if !ok {
			t.Fatalf("Get() ok = false at slot %d, want true", i)
		}
		if b != byte(i) {
			t.Fatalf("Get() = %#x at slot %d, want %#x", b, i, byte(i))
		}
	}
}

func TestByteRingPutSlice(t *testing.T) {
	var r ByteRing

	n := r.PutSlice([]byte("hello"))
	if n != 5 {
		t.Fatalf("PutSlice() = %d, want 5", n)
	}
	if r.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", r.Len())
	}
}

func TestByteRingOrderAcrossGoroutines(t *testing.T) {
	var r ByteRing

	const total = 10_000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sent := 0
		for sent < total {
			if r.Put(byte(sent)) {
				sent++
			}
		}
	}()

	for i := 0; i < total; {
		b, ok := r.Get()
		if !ok {
			continue
		}
		if b != byte(i) {
			t.Fatalf("Get() = %#x at %d, want %#x", b, i, byte(i))
		}
		i++
	}
	wg.Wait()
}
