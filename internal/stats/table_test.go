package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Epoch", "Loss", "Accuracy"}
	rows := [][]string{
		{"1", "1.9512", "0.6300"},
		{"10", "0.2021", "0.9012"},
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Epoch    Loss  Accuracy" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "    1  1.9512    0.6300" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "   10  0.2021    0.9012" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableLeftAlignTrimsTrailingSpace(t *testing.T) {
	lines := formatTable([]string{"Metric", "Value"}, [][]string{{"Final loss", "0.2"}}, map[int]bool{})
	if lines[0] != "Metric      Value" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Final loss  0.2" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}
