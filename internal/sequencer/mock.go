package sequencer

// MockRecorder is a [HandleRecorder] for testing.
type MockRecorder struct {
	// Handles records every handle passed to RecordHandle, in order.
	Handles []Handle

	// FailOn specifies a step ID whose recording fails with Err.
	FailOn string
	Err    error
}

func (m *MockRecorder) RecordHandle(h Handle) error {
	if h.StepID == m.FailOn && m.Err != nil {
		return m.Err
	}
	m.Handles = append(m.Handles, h)
	return nil
}

// StepIDs returns the step IDs of the recorded handles.
func (m *MockRecorder) StepIDs() []string {
	ids := make([]string, len(m.Handles))
	for i, h := range m.Handles {
		ids[i] = h.StepID
	}
	return ids
}
