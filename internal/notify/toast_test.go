package notify

import (
	"fmt"
	"sync"
	"testing"
)

func TestBuffer_DrainEmpties(t *testing.T) {
	b := NewBuffer()
	b.Success("Order placed")
	b.Error("Payment failed")

	toasts := b.Drain()
	if len(toasts) != 2 {
		t.Fatalf("drained %d toasts, want 2", len(toasts))
	}
	if toasts[0].Level != LevelSuccess || toasts[1].Level != LevelError {
		t.Fatalf("toasts = %+v", toasts)
	}
	if len(b.Drain()) != 0 {
		t.Fatal("second drain should be empty")
	}
}

func TestBuffer_CapBounds(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < defaultCap+10; i++ {
		b.Success(fmt.Sprintf("toast %d", i))
	}
	toasts := b.Drain()
	if len(toasts) != defaultCap {
		t.Fatalf("kept %d toasts, want %d", len(toasts), defaultCap)
	}
	if toasts[0].Message != "toast 10" {
		t.Fatalf("oldest kept = %q, want the newest window", toasts[0].Message)
	}
}

func TestBuffer_ConcurrentPush(t *testing.T) {
	b := NewBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Success("ok")
		}()
	}
	wg.Wait()
	if len(b.Drain()) != 10 {
		t.Fatal("concurrent pushes lost toasts")
	}
}
