package mir

import "testing"

func TestRrBoolIsNotTreatedAsPureCall(t *testing.T) {
	if IsPureCall("rr_bool") {
		t.Fatalf("rr_bool must not be in the pure-call whitelist: it can raise")
	}
}

func TestPhiCycleDoesNotRecurseForever(t *testing.T) {
	fn := &Function{}
	fn.Blocks = append(fn.Blocks, &Block{ID: 0})
	// A self-referential Phi: its sole argument is itself, arriving from
	// its own defining block. A naive recursive purity check would loop
	// forever on this; the visiting-set guard must break the cycle and
	// report impure instead of hanging.
	phi := &Value{ID: 0, Kind: VPhi, Block: 0}
	phi.PhiArgs = []PhiArg{{Value: 0, Pred: 0}}
	fn.Values = append(fn.Values, phi)

	if ValueIsPure(fn, 0, map[ValueID]bool{}) {
		t.Fatalf("expected self-referential phi to be reported impure")
	}
}
