package chat

import (
	"testing"

	"coinflip-pilot/internal/domain"
)

func TestParseBalance(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want float64
		ok   bool
	}{
		{"plain", "You currently have 100000 cowoncy!", 100000, true},
		{"comma grouped", "You currently have 1,234,567 cowoncy!", 1234567, true},
		{"case insensitive", "you have 500 COWONCY", 500, true},
		{"no balance", "hello there", 0, false},
		{"currency word only", "I love cowoncy", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBalance(tt.msg)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseBalance(%q) = %v,%v, want %v,%v", tt.msg, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		name       string
		msg        string
		bet        float64
		wantResult domain.RoundResult
		wantDelta  float64
		ok         bool
	}{
		{"bold win", "The coin landed on heads! you won **2,000**!!", 1000, domain.ResultWin, 1000, true},
		{"plain win", "you won 5000!!", 2500, domain.ResultWin, 2500, true},
		{"loss", "The coin landed on tails... you lost it all...", 1000, domain.ResultLoss, -1000, true},
		{"unrelated", "w cash", 1000, "", 0, false},
		{"pending only", "You spent 1,000 cowoncy and the coin spins...", 1000, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := ParseOutcome(tt.msg, tt.bet)
			if ok != tt.ok {
				t.Fatalf("ParseOutcome(%q) ok = %v, want %v", tt.msg, ok, tt.ok)
			}
			if !ok {
				return
			}
			if out.Result != tt.wantResult || out.BalanceDelta != tt.wantDelta || out.BetAmount != tt.bet {
				t.Errorf("ParseOutcome(%q) = %+v, want result %s delta %v", tt.msg, out, tt.wantResult, tt.wantDelta)
			}
		})
	}
}

func TestIsPending(t *testing.T) {
	if !IsPending("You spent 1,000 cowoncy and the coin spins...") {
		t.Error("expected pending acknowledgment to match")
	}
	if IsPending("you won **2,000**!!") {
		t.Error("win message misread as pending")
	}
}

func TestIsVerificationChallenge(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want bool
	}{
		{"direct challenge", "@player, are you a real human? Please verify here", true},
		{"link check", "Please use the link below so I can check!", true},
		{"deadline", "please complete this within 10 minutes", true},
		{"ban warning", "verify your account within 5 minutes or risk a ban", true},
		{"keyword combo", "hey human, you need to verify your account", true},
		{"mention with deadline", "@player verify in the next few minutes please", true},
		{"ordinary chat", "nice win!", false},
		{"balance message", "You currently have 100 cowoncy!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVerificationChallenge(tt.msg); got != tt.want {
				t.Errorf("IsVerificationChallenge(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}
