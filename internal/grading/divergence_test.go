package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckDivergenceBeyondThreshold(t *testing.T) {
	result := CheckDivergence(corr(AgentExaminerOne, 9.0), corr(AgentExaminerTwo, 4.0), 2.0)
	require.True(t, result.Divergent)
	require.InDelta(t, 5.0, result.Diff, 1e-9)
	require.InDelta(t, 2.0, result.Threshold, 1e-9)
}

func TestCheckDivergenceWithinThreshold(t *testing.T) {
	result := CheckDivergence(corr(AgentExaminerOne, 7.5), corr(AgentExaminerTwo, 7.2), 2.0)
	require.False(t, result.Divergent)
	require.InDelta(t, 0.3, result.Diff, 1e-9)
}

func TestCheckDivergenceExactThresholdIsNotDivergent(t *testing.T) {
	result := CheckDivergence(corr(AgentExaminerOne, 8.0), corr(AgentExaminerTwo, 6.0), 2.0)
	require.False(t, result.Divergent, "divergence requires a strictly greater difference")
}

func TestCheckDivergenceSymmetric(t *testing.T) {
	forward := CheckDivergence(corr(AgentExaminerOne, 3.0), corr(AgentExaminerTwo, 8.5), 2.0)
	backward := CheckDivergence(corr(AgentExaminerTwo, 8.5), corr(AgentExaminerOne, 3.0), 2.0)
	require.Equal(t, forward.Divergent, backward.Divergent)
	require.Equal(t, forward.Diff, backward.Diff)
}
