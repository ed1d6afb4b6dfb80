package gcn

import "testing"

func TestSelectActive(t *testing.T) {
	testCases := []struct {
		name     string
		valid    [2]bool
		counters [2]uint16
		expected int
	}{
		{"both valid, copy 1 newer", [2]bool{true, true}, [2]uint16{5, 7}, 1},
		{"both valid, copy 0 newer", [2]bool{true, true}, [2]uint16{7, 5}, 0},
		{"both valid, tie", [2]bool{true, true}, [2]uint16{3, 3}, 0},
		{"copy 0 invalid despite newer counter", [2]bool{false, true}, [2]uint16{7, 5}, 1},
		{"copy 1 invalid despite newer counter", [2]bool{true, false}, [2]uint16{5, 7}, 0},
		{"neither valid", [2]bool{false, false}, [2]uint16{1, 2}, NoActiveCopy},
		{"signed comparison", [2]bool{true, true}, [2]uint16{0xFFFF, 0x0000}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			copies := [CopyCount]TableCopy[struct{}]{
				{Valid: tc.valid[0], Counter: tc.counters[0]},
				{Valid: tc.valid[1], Counter: tc.counters[1]},
			}
			if got := SelectActive(copies); got != tc.expected {
				t.Errorf("SelectActive() = %d, want %d", got, tc.expected)
			}
		})
	}
}
