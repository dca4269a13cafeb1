package main

// StackConfig holds configuration for the outcome CDK stack.
type StackConfig struct {
	TableName        string
	MemorySize       float64
	Timeout          float64
	LambdaDistDir    string
	LogRetentionDays float64
	DestroyOnDelete  bool

	// ReportFidelity is passed to the API function as REPORT_FIDELITY.
	ReportFidelity string
	// EventBusName enables the EventBridge report sink when set.
	EventBusName string
}

// DefaultConfig returns a StackConfig with sensible defaults.
func DefaultConfig() StackConfig {
	return StackConfig{
		TableName:        "outcome-members",
		MemorySize:       256,
		Timeout:          30,
		LambdaDistDir:    "../dist/lambda",
		LogRetentionDays: 7,
		ReportFidelity:   "flat",
	}
}
