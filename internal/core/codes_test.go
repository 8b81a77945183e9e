package core

import "testing"

func TestProcessingOperationCodes(t *testing.T) {
	for _, code := range []string{"R 1", "R 13", "D 1", "D 9 F", "D 15"} {
		if !IsProcessingOperationCode(code) {
			t.Fatalf("%q should be a processing code", code)
		}
	}
	for _, code := range []string{"", "R1", "r 1", "D 11", "X 1"} {
		if IsProcessingOperationCode(code) {
			t.Fatalf("%q should not be a processing code", code)
		}
	}
}

func TestGroupingOperationCodes(t *testing.T) {
	for _, code := range []string{"R 12", "R 13", "D 9", "D 13", "D 14", "D 15"} {
		if !IsGroupingOperationCode(code) {
			t.Fatalf("%q should be a grouping code", code)
		}
	}
	for _, code := range []string{"R 1", "D 9 F", "D 10"} {
		if IsGroupingOperationCode(code) {
			t.Fatalf("%q should not be a grouping code", code)
		}
	}
}

func TestIsFinalOperation(t *testing.T) {
	if !IsFinalOperation("R 1", false) {
		t.Fatal("plain treatment code should be final")
	}
	if IsFinalOperation("R 12", false) {
		t.Fatal("grouping code without break should not be final")
	}
	if !IsFinalOperation("R 12", true) {
		t.Fatal("traceability break makes any code final")
	}
}
