package strategy

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/burstgraph/internal/process"
)

// LabelVerification rejects traversals that select a label no earlier step
// declares. Labels declared before an enclosing local step are visible to
// its child.
type LabelVerification struct{}

func (LabelVerification) Name() string               { return NameLabelVerification }
func (LabelVerification) Category() process.Category { return process.CategoryVerification }
func (LabelVerification) Priors() []string           { return nil }
func (LabelVerification) Posteriors() []string       { return nil }

func (LabelVerification) Apply(t *process.Traversal) error {
	for i := range t.Len() {
		sel, ok := t.Step(i).(*process.SelectStep)
		if !ok {
			continue
		}
		declared := declaredBefore(t, i)
		for _, l := range sel.SelectLabels() {
			if !slices.Contains(declared, l) {
				return fmt.Errorf("%w: select(%q) refers to a label no earlier step declares", process.ErrRequirementViolation, l)
			}
		}
	}
	return nil
}

// declaredBefore collects the labels of the steps preceding position i of t
// and of the steps preceding each enclosing holder.
func declaredBefore(t *process.Traversal, i int) []string {
	var labels []string
	for cur, end := t, i; cur != nil; {
		for _, s := range cur.Steps()[:end] {
			labels = append(labels, s.Labels()...)
		}
		h := cur.Holder()
		if h == nil || h.Traversal() == nil {
			break
		}
		cur, end = h.Traversal(), h.Index()
	}
	return labels
}
