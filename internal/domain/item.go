package domain

// RowFlags mirror the per-row action buttons. They are set independently, so
// combinations such as active+paused are expected.
type RowFlags struct {
	Active  bool
	Paused  bool
	Resumed bool
	Stopped bool
}

// ItemRow is a per-session working draft of an item.
type ItemRow struct {
	ItemID string
	URL    string
	Status Status
	Stage  Stage
	Date   string
	Flags  RowFlags
}

// NewItemRow returns a blank draft with default labels.
func NewItemRow(date string) ItemRow {
	return ItemRow{
		Status: StatusInProgress,
		Stage:  StageAnalyse,
		Date:   date,
	}
}
