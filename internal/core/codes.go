package core

// Processing operation codes recognised on an Operation signature. The list
// is closed; the validator rejects anything outside it. Grouping codes defer
// final treatment to a parent manifest.
var processingOperationCodes = toSet(
	"R 1", "R 2", "R 3", "R 4", "R 5", "R 6", "R 7", "R 8", "R 9", "R 10", "R 11", "R 12", "R 13",
	"D 1", "D 2", "D 3", "D 4", "D 5", "D 6", "D 7", "D 8", "D 9", "D 9 F", "D 10", "D 12", "D 13", "D 14", "D 15",
)

var groupingOperationCodes = toSet("R 12", "R 13", "D 9", "D 13", "D 14", "D 15")

// IsProcessingOperationCode reports whether code belongs to the closed
// treatment code list.
func IsProcessingOperationCode(code string) bool {
	_, ok := processingOperationCodes[code]
	return ok
}

// IsGroupingOperationCode reports whether code defers treatment to a
// grouping parent.
func IsGroupingOperationCode(code string) bool {
	_, ok := groupingOperationCodes[code]
	return ok
}

// IsFinalOperation reports whether an operation ends the manifest's
// traceability chain. A traceability break makes any code final.
func IsFinalOperation(code string, noTraceability bool) bool {
	return noTraceability || !IsGroupingOperationCode(code)
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
