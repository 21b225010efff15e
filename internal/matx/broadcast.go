package matx

import "github.com/scaper-sim/scaper/internal/scaperr"

// AddInto folds parts into acc in place. acc's Shape is the target
// shape; each part is broadcast to it per these rules: Scalar broadcasts
// to any shape; RowVec adds to each row of an ODMat (indexed by
// destination); ColVec adds to each column of an ODMat (indexed by
// origin); same-shape parts add directly. A RowVec/ColVec accumulator
// combined with the opposite-axis part shape is a ShapeMismatch.
//
// ODMat data is stored origin-major: cell (o, d) is at index
// o*NumZones + d.
func AddInto(acc *Mat, parts ...Mat) {
	for _, p := range parts {
		addOne(acc, p)
	}
}

func addOne(acc *Mat, p Mat) {
	switch acc.Shape {
	case Scalar:
		if p.Shape != Scalar {
			scaperr.ShapeMismatch("cannot add %s part into Scalar accumulator", p.Shape)
		}
		acc.Data[0] += p.Scale * p.Data[0]

	case RowVec:
		switch p.Shape {
		case Scalar:
			addScalarConst(acc, p)
		case RowVec:
			addElementwise(acc, p)
		default:
			scaperr.ShapeMismatch("cannot add %s part into RowVec accumulator", p.Shape)
		}

	case ColVec:
		switch p.Shape {
		case Scalar:
			addScalarConst(acc, p)
		case ColVec:
			addElementwise(acc, p)
		default:
			scaperr.ShapeMismatch("cannot add %s part into ColVec accumulator", p.Shape)
		}

	case ODMat:
		n := acc.NumZones
		switch p.Shape {
		case Scalar:
			addScalarConst(acc, p)
		case RowVec:
			v := p.Scale
			for o := 0; o < n; o++ {
				base := o * n
				for d := 0; d < n; d++ {
					acc.Data[base+d] += v * p.Data[d]
				}
			}
		case ColVec:
			v := p.Scale
			for o := 0; o < n; o++ {
				add := v * p.Data[o]
				base := o * n
				for d := 0; d < n; d++ {
					acc.Data[base+d] += add
				}
			}
		case ODMat:
			addElementwise(acc, p)
		}

	default:
		scaperr.ShapeMismatch("unknown accumulator shape %v", acc.Shape)
	}
}

func addScalarConst(acc *Mat, p Mat) {
	v := p.Scale * p.Data[0]
	for i := range acc.Data {
		acc.Data[i] += v
	}
}

func addElementwise(acc *Mat, p Mat) {
	scale := p.Scale
	for i, v := range p.Data {
		acc.Data[i] += scale * v
	}
}

// DivideRowsIgnoreZero divides each row of numerator (an ODMat) by the
// corresponding entry of denom (a ColVec keyed by origin), leaving the
// row unchanged wherever the denominator is not strictly positive.
func DivideRowsIgnoreZero(numerator *Mat, denom Mat) {
	if numerator.Shape != ODMat {
		scaperr.ShapeMismatch("DivideRowsIgnoreZero: numerator must be ODMat, got %v", numerator.Shape)
	}
	if denom.Shape != ColVec {
		scaperr.ShapeMismatch("DivideRowsIgnoreZero: denominator must be ColVec, got %v", denom.Shape)
	}
	numerator.Materialize()
	n := numerator.NumZones
	for o := 0; o < n; o++ {
		dv := denom.Scale * denom.Data[o]
		if dv <= 0 {
			continue
		}
		base := o * n
		for d := 0; d < n; d++ {
			numerator.Data[base+d] /= dv
		}
	}
}
