package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionTableEdges(t *testing.T) {
	t.Parallel()

	expected := map[Status][]Status{
		StatusNew:              {StatusValidationRejected, StatusAwaitingMatch},
		StatusAwaitingMatch:    {StatusAwaitingIngest, StatusMatched, StatusDenied},
		StatusAwaitingIngest:   {StatusAwaitingMatch, StatusDenied},
		StatusMatched:          {StatusPriceValidated, StatusDenied},
		StatusPriceValidated:   {StatusNeedsExplanation, StatusReadyForSubmission, StatusDenied},
		StatusNeedsExplanation: {StatusReadyForSubmission, StatusDenied},
	}

	for from, targets := range expected {
		require.ElementsMatch(t, targets, NextStatuses(from), "targets from %s", from)
		for _, to := range targets {
			require.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	// Everything not listed is rejected.
	for _, from := range AllStatuses() {
		allowed := expected[from]
		for _, to := range AllStatuses() {
			if statusIn(to, allowed) {
				continue
			}
			require.False(t, CanTransition(from, to), "%s -> %s must be invalid", from, to)
		}
	}
}

func statusIn(s Status, set []Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	t.Parallel()

	terminals := []Status{StatusValidationRejected, StatusReadyForSubmission, StatusDenied}
	for _, s := range terminals {
		require.True(t, s.IsTerminal(), "%s", s)
		require.Empty(t, NextStatuses(s), "%s", s)
	}

	for _, s := range AllStatuses() {
		if statusIn(s, terminals) {
			continue
		}
		require.False(t, s.IsTerminal(), "%s", s)
	}
}

func TestIsValidStatus(t *testing.T) {
	t.Parallel()

	for _, s := range AllStatuses() {
		require.True(t, IsValidStatus(s))
	}
	require.False(t, IsValidStatus("SHIPPED"))
	require.False(t, IsValidStatus(""))
}

func TestNextStatusesReturnsCopy(t *testing.T) {
	t.Parallel()

	targets := NextStatuses(StatusNew)
	require.NotEmpty(t, targets)
	targets[0] = StatusDenied

	require.Equal(t, StatusValidationRejected, NextStatuses(StatusNew)[0])
}

func TestRandomWalkStaysInsideTable(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(47))
	for run := 0; run < 200; run++ {
		current := StatusNew
		for steps := 0; steps < 20; steps++ {
			next := NextStatuses(current)
			if len(next) == 0 {
				require.True(t, current.IsTerminal())
				break
			}
			chosen := next[rng.Intn(len(next))]
			require.True(t, CanTransition(current, chosen))
			require.True(t, IsValidStatus(chosen))
			current = chosen
		}
	}
}
