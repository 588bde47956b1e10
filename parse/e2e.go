package parse

// E2EMeasurement is what one e2e client run reports.
type E2EMeasurement struct {
	AnswerMs      float64
	PIRMs         float64
	HintMs        float64
	BatchCapacity uint64
}

// Values returns [answer, pir, hint, capacity].
func (m E2EMeasurement) Values() []float64 {
	return []float64{m.AnswerMs, m.PIRMs, m.HintMs, float64(m.BatchCapacity)}
}

// E2E extracts the answer latency line and the batch capacity from client output.
func E2E(out string) (E2EMeasurement, error) {
	lat, err := AnswerLatency(out)
	if err != nil {
		return E2EMeasurement{}, err
	}
	capacity, err := BatchCapacity(out)
	if err != nil {
		return E2EMeasurement{}, err
	}
	pir, _ := lat.Component("pir")
	hint, _ := lat.Component("hint")
	return E2EMeasurement{
		AnswerMs:      lat.Value,
		PIRMs:         pir,
		HintMs:        hint,
		BatchCapacity: capacity,
	}, nil
}
