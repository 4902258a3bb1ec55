package types

// Standard table names for Catalog.GetTable.
const (
	TargetsTable = "link_targets"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TargetsTable,
}
