package types

// Table names used by the backend and the JSONL export.
const (
	PlansTable       = "plans"
	CycleStatesTable = "cycle_states"
	SessionsTable    = "sessions"
	AssignmentsTable = "assignments"
	SetLogsTable     = "set_logs"
	ProgressionTable = "progression"
	BlocksTable      = "adaptation_blocks"
	ExercisesTable   = "exercises"
)

// Tables gives typed access to every entity table inside one unit of work.
type Tables interface {
	Plans() PlanTable
	Cycles() CycleTable
	Sessions() SessionTable
	Assignments() AssignmentTable
	SetLogs() SetLogTable
	Progression() ProgressionTableAccess
	Adaptation() AdaptationTable
}
