package taskname

const (
	// Settlement tasks
	SettlementSnapshot = "settlement:snapshot"
)
