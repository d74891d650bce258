package domain

// Goal is a savings target.
type Goal struct {
	Ownership

	Name         string `json:"name"`
	TargetAmount Money  `json:"target_amount"`
	SavedAmount  Money  `json:"saved_amount"`
	Deadline     *Date  `json:"deadline"`

	// Computed, not stored.
	Progress int  `json:"progress"`
	Reached  bool `json:"reached"`
}

// NewGoal returns an empty Goal.
func NewGoal() *Goal {
	return &Goal{}
}

// Compute implements Computer.
func (g *Goal) Compute() {
	g.Progress = Percent(g.SavedAmount, g.TargetAmount)
	g.Reached = g.TargetAmount > 0 && g.SavedAmount >= g.TargetAmount
}

// GoalPatch holds the fields accepted on goal create and update.
type GoalPatch struct {
	Name         *string `json:"name"`
	TargetAmount *Money  `json:"target_amount"`
	SavedAmount  *Money  `json:"saved_amount"`
	Deadline     *Date   `json:"deadline"`
}

// Validate implements Patch.
func (p *GoalPatch) Validate(creating bool) error {
	var v Validator
	if creating || p.Name != nil {
		v.Required("name", trimmed(p.Name))
		v.MaxLen("name", trimmed(p.Name), MaxNameLength)
	}
	if creating || p.TargetAmount != nil {
		v.Check(p.TargetAmount != nil, "target_amount", "is required")
		if p.TargetAmount != nil {
			v.Positive("target_amount", *p.TargetAmount)
		}
	}
	if p.SavedAmount != nil {
		v.Check(*p.SavedAmount >= 0, "saved_amount", "must not be negative")
	}
	return v.Err()
}

// Apply implements Patch.
func (p *GoalPatch) Apply(g *Goal) {
	if p.Name != nil {
		g.Name = trimmed(p.Name)
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.SavedAmount != nil {
		g.SavedAmount = *p.SavedAmount
	}
	if p.Deadline != nil {
		deadline := *p.Deadline
		g.Deadline = &deadline
	}
}
