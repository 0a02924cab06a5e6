package anim

import (
	"testing"

	pferrors "github.com/matzehuels/packetflow/pkg/errors"
)

func TestParseCommandType(t *testing.T) {
	tests := []struct {
		in   string
		want CommandType
	}{
		{"nslookup", Lookup},
		{"lookup", Lookup},
		{"ping", Reachability},
		{" PING ", Reachability},
		{"traceroute", RouteTrace},
		{"tracert", RouteTrace},
		{"route-trace", RouteTrace},
		{"ipconfig", LocalConfig},
		{"ifconfig", LocalConfig},
		{"whoami", LocalConfig},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommandType(tt.in)
			if err != nil {
				t.Fatalf("ParseCommandType(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommandType(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCommandTypeUnknown(t *testing.T) {
	_, err := ParseCommandType("netstat")
	if !pferrors.Is(err, pferrors.ErrCodeInvalidCommand) {
		t.Errorf("expected INVALID_COMMAND, got %v", err)
	}
}

func TestCommandTypeUsesRoute(t *testing.T) {
	for _, ct := range CommandTypes {
		want := ct == Reachability || ct == RouteTrace
		if got := ct.UsesRoute(); got != want {
			t.Errorf("%s.UsesRoute() = %v, want %v", ct, got, want)
		}
		if !ct.Valid() {
			t.Errorf("%s.Valid() = false", ct)
		}
	}
}
