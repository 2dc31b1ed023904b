package http

import (
	"context"
	"net"
	gohttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/transport"
)

func TestServerServesAndShutsDown(t *testing.T) {
	a := NewAdapter(Deps{Chat: &fakeChat{}}, DefaultConfig())
	srv := NewServer(a, WithShutdownTimeout(2*time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeOn(ctx, ln) }()

	resp, err := gohttp.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeOn returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerGracefulShutdownWaitsForChat(t *testing.T) {
	started := make(chan struct{})
	slow := transport.ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		return &api.ChatResponse{Response: "done"}, nil
	})
	srv := NewServer(NewAdapter(Deps{Chat: slow}, DefaultConfig()), WithShutdownTimeout(5*time.Second))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeOn(ctx, ln) }()

	status := make(chan int, 1)
	go func() {
		resp, err := gohttp.Post("http://"+ln.Addr().String()+"/api/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	cancel()

	if got := <-status; got != gohttp.StatusOK {
		t.Errorf("in-flight request status = %d, want 200", got)
	}
	if err := <-done; err != nil {
		t.Errorf("shutdown error: %v", err)
	}
}
