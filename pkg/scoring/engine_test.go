package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadEnv(overrides map[string]interface{}) map[string]interface{} {
	env := map[string]interface{}{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"company":    "",
		"email":      "",
		"phone":      "",
		"source":     "",
		"status":     "new",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

func TestScoreDefaultRules(t *testing.T) {
	engine := NewEngine()

	// Bare lead matches nothing
	score, err := engine.Score(leadEnv(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	// Corporate email: has-email (10) + corporate-email (15)
	score, err = engine.Score(leadEnv(map[string]interface{}{
		"email": "ada@engines.example",
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, 25, score)

	// Free-mail address only gets the has-email points
	score, err = engine.Score(leadEnv(map[string]interface{}{
		"email": "ada@gmail.com",
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, 10, score)

	// Fully loaded lead clamps at 100
	score, err = engine.Score(leadEnv(map[string]interface{}{
		"email":   "ada@engines.example",
		"phone":   "+44 1",
		"company": "Analytical Engines",
		"source":  "referral",
		"status":  "qualified",
	}), nil)
	require.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestScoreCustomRules(t *testing.T) {
	engine := NewEngine()

	rules := []Rule{
		{Name: "big-company", Expression: `CONTAINS(company, "corp")`, Points: 40},
		{Name: "warm", Expression: `status == "contacted"`, Points: 5},
	}

	score, err := engine.Score(leadEnv(map[string]interface{}{
		"company": "MegaCorp Ltd",
		"status":  "contacted",
	}), rules)
	require.NoError(t, err)
	assert.Equal(t, 45, score)
}

func TestScoreBadExpression(t *testing.T) {
	engine := NewEngine()

	rules := []Rule{
		{Name: "broken", Expression: `email ==`, Points: 10},
	}

	_, err := engine.Score(leadEnv(nil), rules)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestScoreNonBooleanSkipped(t *testing.T) {
	engine := NewEngine()

	rules := []Rule{
		{Name: "not-a-condition", Expression: `company`, Points: 50},
		{Name: "has-status", Expression: `status != ""`, Points: 10},
	}

	score, err := engine.Score(leadEnv(map[string]interface{}{"company": "X"}), rules)
	require.NoError(t, err)
	assert.Equal(t, 10, score)
}

func TestValidate(t *testing.T) {
	engine := NewEngine()
	env := leadEnv(nil)

	assert.NoError(t, engine.Validate(`HASSUFFIX(email, ".io")`, env))
	assert.Error(t, engine.Validate(`HASSUFFIX(email`, env))
}
