package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateStepsTwoPerWeek(t *testing.T) {
	steps := templateSteps("linear algebra", 3)
	require.Len(t, steps, 6)

	for i, step := range steps {
		assert.Equal(t, i+1, step.OrderNum)
		assert.Equal(t, i/2+1, step.WeekNumber)
		assert.False(t, step.Completed)
	}
	assert.Contains(t, steps[0].Title, "linear algebra")
}
