package scoring

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule awards Points when its boolean Expression evaluates true against a
// lead environment (fields like company, email, source, status).
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Points     int    `json:"points"`
}

// DefaultRules is the scoring rule set applied when a tenant has not
// configured its own.
var DefaultRules = []Rule{
	{Name: "has-email", Expression: `email != ""`, Points: 10},
	{Name: "has-phone", Expression: `phone != ""`, Points: 10},
	{Name: "has-company", Expression: `company != ""`, Points: 20},
	{Name: "corporate-email", Expression: `email != "" && !HASSUFFIX(email, "@gmail.com") && !HASSUFFIX(email, "@yahoo.com")`, Points: 15},
	{Name: "referral-source", Expression: `source == "referral"`, Points: 25},
	{Name: "qualified", Expression: `status == "qualified"`, Points: 20},
}

// Engine evaluates scoring rules, caching compiled programs per expression.
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new scoring engine
func NewEngine() *Engine {
	return &Engine{programCache: make(map[string]*vm.Program)}
}

// Score runs every rule against env, sums the points of the rules that
// evaluated true, and clamps the result to 0..100. A rule that fails to
// compile aborts scoring; a rule that evaluates to a non-boolean is skipped.
func (e *Engine) Score(env map[string]interface{}, rules []Rule) (int, error) {
	if len(rules) == 0 {
		rules = DefaultRules
	}

	total := 0
	for _, rule := range rules {
		program, err := e.getProgram(rule.Expression, env)
		if err != nil {
			return 0, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return 0, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		if matched, ok := out.(bool); ok && matched {
			total += rule.Points
		}
	}

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total, nil
}

// Validate compiles an expression without running it.
func (e *Engine) Validate(expression string, env map[string]interface{}) error {
	_, err := e.getProgram(expression, env)
	return err
}

func (e *Engine) getProgram(expression string, env map[string]interface{}) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[expression]; ok {
		return prog, nil
	}

	options := []expr.Option{
		expr.Env(env),
		expr.Function("HASSUFFIX", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("HASSUFFIX requires 2 arguments")
			}
			s, ok1 := params[0].(string)
			suffix, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("HASSUFFIX arguments must be strings")
			}
			return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix)), nil
		}),
		expr.Function("CONTAINS", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("CONTAINS requires 2 arguments")
			}
			s, ok1 := params[0].(string)
			sub, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("CONTAINS arguments must be strings")
			}
			return strings.Contains(strings.ToLower(s), strings.ToLower(sub)), nil
		}),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, err
	}

	e.programCache[expression] = program
	return program, nil
}
