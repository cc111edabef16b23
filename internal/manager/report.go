package manager

// Report summarizes one Initialize run.
type Report struct {
	RunID   string
	DryRun  bool
	Results []TableResult
}

// TableResult is the per-table outcome of a run.
type TableResult struct {
	TableName   string
	Status      string
	FromVersion int64
	ToVersion   int64
	Executed    []int64 // versions applied this run
	Planned     []int64 // versions that would be applied (dry-run)
}

// Migrated returns the number of tables that had migrations applied.
func (r *Report) Migrated() int {
	n := 0

	for _, res := range r.Results {
		if res.Status == StatusMigrated {
			n++
		}
	}

	return n
}

// Validation is the outcome of comparing recorded versions against the
// catalog. Errors are formatted as "tableName: current vX, target vY".
type Validation struct {
	Valid  bool
	Errors []string
}
