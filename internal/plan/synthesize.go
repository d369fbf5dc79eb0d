package plan

import (
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
)

// Synthesize runs the pipeline on one descriptor: tolerance resolution, field
// planning, assembly and constraint derivation for both procedures.
// Descriptor errors abort synthesis.
func Synthesize(d *descriptor.Descriptor) (*Output, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	tol := ResolveTolerance(d)
	out := &Output{Descriptor: d, Tolerance: tol}

	switch d.Kind {
	case descriptor.KindRecord:
		out.Fields = PlanFields(d.Fields, tol)
	case descriptor.KindUnion:
		out.Variants = make([]VariantPlan, len(d.Variants))
		for i, v := range d.Variants {
			out.Variants[i] = VariantPlan{Variant: v, Fields: PlanFields(v.Fields, tol)}
		}
	}

	out.Abs = out.procedure(expr.Absolute)
	out.Rel = out.procedure(expr.Relative)

	return out, nil
}

func (o *Output) procedure(c expr.Comparison) Procedure {
	var body expr.Expr
	if o.Descriptor.Kind == descriptor.KindUnion {
		body = AssembleUnion(o.Variants, c)
	} else {
		body = AssembleRecord(o.Fields, c)
	}

	return Procedure{
		Comparison:  c,
		Body:        body,
		Constraints: DeriveConstraints(o.Tolerance, c),
	}
}
