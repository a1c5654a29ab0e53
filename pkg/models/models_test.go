package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityValid(t *testing.T) {
	assert.True(t, SeverityDanger.Valid())
	assert.True(t, SeverityWarning.Valid())
	assert.True(t, SeverityInfo.Valid())
	assert.False(t, Severity("").Valid())
	assert.False(t, Severity("critical").Valid())
	assert.False(t, Severity("WARNING").Valid())
}

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "", JoinTags(nil))
	assert.Equal(t, "", JoinTags([]string{"", "  "}))
	assert.Equal(t, "go,sqlite", JoinTags([]string{"go", "sqlite"}))
	assert.Equal(t, "go,sqlite", JoinTags([]string{" go ", "", "sqlite"}))
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, SplitTags(""))
	assert.Equal(t, []string{"go"}, SplitTags("go"))
	assert.Equal(t, []string{"go", "sqlite"}, SplitTags("go, sqlite ,"))
}

func TestStatsReviewRatio(t *testing.T) {
	assert.Zero(t, (&Stats{}).ReviewRatio())
	assert.InDelta(t, 0.25, (&Stats{Concepts: 4, ReviewedConcepts: 1}).ReviewRatio(), 1e-9)
}
