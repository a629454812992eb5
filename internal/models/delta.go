package models

// DeltaOp is the kind of change an optimistic delta represents.
type DeltaOp int

const (
	DeltaCreate DeltaOp = iota
	DeltaUpdate
	DeltaDelete
)

// CompletionDelta is a pending completion toggle for one habit on one day.
type CompletionDelta struct {
	Date      string
	HabitID   string
	Completed bool
}

// CategoryDelta is a pending category create, rename or delete.
type CategoryDelta struct {
	Op       DeltaOp
	Category Category
}

// GoalDelta is a pending goal create, move or delete.
type GoalDelta struct {
	Op   DeltaOp
	Goal Goal
}
