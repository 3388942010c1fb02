package chat

import (
	"regexp"
	"strconv"
	"strings"

	"coinflip-pilot/internal/domain"
)

// Message grammar of the chat game. Amounts are comma-grouped integers in
// the game currency ("cowoncy").
var (
	balanceRe = regexp.MustCompile(`(?i)(\d+(?:,\d+)*)\s*cowoncy`)
	winRe     = regexp.MustCompile(`(?i)you won (?:\*\*)?(\d+(?:,\d+)*)(?:\*\*)?!*`)
	lossRe    = regexp.MustCompile(`(?i)lost it all`)
	pendingRe = regexp.MustCompile(`(?i)spent.*coin spins`)
)

// Verification challenge patterns. Any match means the account is being
// asked to prove it is human and betting must pause.
var verificationRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)@\w+,\s*are you a real human\?.*verify`),
	regexp.MustCompile(`(?i)please use the link below so i can check`),
	regexp.MustCompile(`(?i)please complete this within \d+ minutes`),
	regexp.MustCompile(`(?i)verify.*within.*minutes.*ban`),
}

// parseAmount converts a comma-grouped integer string to a float64.
func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// ParseBalance extracts a balance from a chat message, if present.
func ParseBalance(msg string) (float64, bool) {
	m := balanceRe.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	v, err := parseAmount(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseOutcome extracts a round resolution from a chat message. The win
// message reports the gross payout; the outcome's balance delta is net of
// the stake. A loss forfeits the whole stake.
func ParseOutcome(msg string, betAmount float64) (*domain.RoundOutcome, bool) {
	if m := winRe.FindStringSubmatch(msg); m != nil {
		payout, err := parseAmount(m[1])
		if err != nil {
			return nil, false
		}
		return &domain.RoundOutcome{
			Result:       domain.ResultWin,
			BetAmount:    betAmount,
			BalanceDelta: payout - betAmount,
		}, true
	}
	if lossRe.MatchString(msg) {
		return &domain.RoundOutcome{
			Result:       domain.ResultLoss,
			BetAmount:    betAmount,
			BalanceDelta: -betAmount,
		}, true
	}
	return nil, false
}

// IsPending reports whether the message acknowledges a spinning coin, i.e.
// the wager was accepted but not yet resolved.
func IsPending(msg string) bool {
	return pendingRe.MatchString(msg)
}

// IsVerificationChallenge reports whether the message is a human
// verification request.
func IsVerificationChallenge(msg string) bool {
	for _, re := range verificationRes {
		if re.MatchString(msg) {
			return true
		}
	}
	lower := strings.ToLower(msg)
	// Keyword fallback for reworded challenges.
	if strings.Contains(lower, "human") && strings.Contains(lower, "verify") {
		return true
	}
	if strings.Contains(msg, "@") && strings.Contains(lower, "verify") && strings.Contains(lower, "minutes") {
		return true
	}
	return false
}
