package workflowadmin

import (
	"errors"
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/intake-hub/intake-hub/internal/domain/session"
)

// DefaultCommissionExpr is used when no operator-configured expression
// is supplied.
const DefaultCommissionExpr = "loanAmount * 0.025"

// CommissionCalculator evaluates an operator-configurable arithmetic
// expression against an application's form data to price the agent
// commission on approval.
type CommissionCalculator struct {
	expr *govaluate.EvaluableExpression
}

// NewCommissionCalculator parses the expression once at startup.
func NewCommissionCalculator(expression string) (*CommissionCalculator, error) {
	if expression == "" {
		expression = DefaultCommissionExpr
	}
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid commission expression: %w", err)
	}
	return &CommissionCalculator{expr: expr}, nil
}

// Compute evaluates the commission for one application. The expression
// sees the numeric leaves of form data as parameters.
func (c *CommissionCalculator) Compute(formData session.Document) (float64, error) {
	params := map[string]any{
		"loanAmount":       formData.GetFloat("loanAmount", 0),
		"loanPeriodMonths": formData.GetFloat("loanPeriodMonths", 0),
		"depositPercent":   formData.GetFloat("depositPercent", 0),
		"monthlySalary":    formData.GetFloat("monthlySalaryAmount", 0),
	}
	result, err := c.expr.Evaluate(params)
	if err != nil {
		return 0, fmt.Errorf("commission evaluation failed: %w", err)
	}
	amount, ok := result.(float64)
	if !ok {
		return 0, errors.New("commission expression did not evaluate to a number")
	}
	return amount, nil
}
