package consts

const (
	IterativeTol     = 1e-10 // CG/GMRES relative residual tolerance
	IterativeMaxIter = 1000  // CG/GMRES iteration cap
	GMRESRestart     = 200   // GMRES Krylov subspace size before restart

	AgreementTol = 1e-8 // Direct vs LU relative agreement

	BisectMaxIter   = 60
	BisectTol       = 1e-3 // volts
	OptimizeMaxIter = 500
	OptimizeXTol    = 1e-2

	NoiseSigma = 0.005 // relative standard deviation of G perturbation
	NoiseSeed  = 42

	StepSpan  = 5.0  // integrate step response out to StepSpan·τ
	StepVolts = 10.0 // default step amplitude (V)
)
