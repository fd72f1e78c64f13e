package habit

// Completion decides whether a day's ledger amount counts as completed.
type Completion interface {
	Completed(amount float64) bool
}

// binaryCompletion: any recorded entry completes the day.
type binaryCompletion struct{}

func (binaryCompletion) Completed(amount float64) bool {
	return amount > 0
}

// numericCompletion: the logged amount must reach the goal.
type numericCompletion struct {
	goal float64
}

func (c numericCompletion) Completed(amount float64) bool {
	return amount > 0 && amount >= c.goal
}
