package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestCleanName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" auth/login ":        "auth_login",
		"auth..login.success": "auth.login.success",
		".auth.resolve.":      "auth.resolve",
		"two words":           "two_words",
		"":                    "",
	}

	for input, want := range tests {
		if got := cleanName(input); got != want {
			t.Fatalf("cleanName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCleanPrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" classroom ":  "classroom",
		".classroom..": "classroom",
		".":            "",
	}

	for input, want := range tests {
		if got := cleanPrefix(input); got != want {
			t.Fatalf("cleanPrefix(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTagSuffix(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env":       "prod",
		" service ": " classroom ",
	}
	local := map[string]string{
		"reason": " domain ",
		"":       "dropped",
		"env":    "test",
	}

	got := tagSuffix(global, local)
	want := "|#env:test,reason:domain,service:classroom"
	if got != want {
		t.Fatalf("tagSuffix mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := tagSuffix(nil, nil); got != "" {
		t.Fatalf("tagSuffix(nil, nil) = %q, want empty string", got)
	}
}

func TestClientEmitsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer pc.Close()

	client, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "classroom",
		GlobalTags: map[string]string{"env": "test"},
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()

	if !client.Enabled() {
		t.Fatal("expected client to be enabled")
	}

	readLine := func() string {
		t.Helper()
		if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("set deadline: %v", err)
		}
		buf := make([]byte, 512)
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read datagram: %v", err)
		}
		return string(buf[:n])
	}

	client.Count("auth.login.denied", 1, map[string]string{"reason": "domain"})
	if got, want := readLine(), "classroom.auth.login.denied:1|c|#env:test,reason:domain"; got != want {
		t.Fatalf("counter line = %q, want %q", got, want)
	}

	client.Timing("auth.resolve.duration", 250*time.Millisecond, nil)
	got := readLine()
	if !strings.HasPrefix(got, "classroom.auth.resolve.duration:250|ms") {
		t.Fatalf("timing line = %q, want 250ms payload", got)
	}
}

func TestClientDisabledIsNoOp(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is blank")
	}

	// Must not panic without a connection.
	client.Count("auth.login.success", 1, nil)
	client.Timing("auth.resolve.duration", time.Second, nil)

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	nilClient.Count("auth.login.success", 1, nil)
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{enabled: true, conn: clientConn}

	if !client.Enabled() {
		t.Fatal("expected client.Enabled with an active connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client disabled after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for an invalid address")
	}
	if !strings.Contains(err.Error(), "dial statsd") {
		t.Fatalf("unexpected error: %v", err)
	}
}
