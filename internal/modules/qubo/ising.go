package qubo

// Ising is the spin form of a model: f = Offset + sum_i H[i]*z_i + sum J*z_i*z_j,
// with z_i = 1 - 2*x_i (x=0 -> spin up, x=1 -> spin down).
type Ising struct {
	H      []float64 `json:"h"`
	J      []Term    `json:"j"`
	Offset float64   `json:"offset"`
}

// ToIsing substitutes x_i = (1 - z_i)/2 into the model.
func (m *Model) ToIsing() Ising {
	n := m.NumVariables()
	is := Ising{
		H:      make([]float64, n),
		J:      []Term{},
		Offset: m.Constant,
	}
	for i, l := range m.Linear {
		is.Offset += l / 2
		is.H[i] -= l / 2
	}
	for _, t := range m.QuadraticTerms() {
		q4 := t.Value / 4
		is.Offset += q4
		is.H[t.I] -= q4
		is.H[t.J] -= q4
		is.J = append(is.J, Term{I: t.I, J: t.J, Value: q4})
	}
	return is
}

// Energy evaluates the Ising form at the spins implied by the binary assignment x.
func (is Ising) Energy(x []int) float64 {
	spin := func(b int) float64 {
		if b == 0 {
			return 1
		}
		return -1
	}
	e := is.Offset
	for i, h := range is.H {
		e += h * spin(x[i])
	}
	for _, t := range is.J {
		e += t.Value * spin(x[t.I]) * spin(x[t.J])
	}
	return e
}
