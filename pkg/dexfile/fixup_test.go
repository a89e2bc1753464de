package dexfile

import (
	"errors"
	"testing"
)

func TestRemapCodeRewritesPoolIDs(t *testing.T) {
	insns := []uint16{
		0x001A, 0x0002, // const-string v0, string@2
		0x0122, 0x0001, // new-instance v1, type@1
		0x1070, 0x0000, 0x0000, // invoke-direct {v0}, meth@0
		0x0038, 0x0005, // if-eqz v0, +5 (offset, not a pool id)
		0x000E, // return-void
	}
	stringMap := []int{5, 6, 7}
	typeMap := []int{3, 4}
	methodMap := []int{9}

	if err := remapCode(insns, stringMap, typeMap, methodMap); err != nil {
		t.Fatalf("remapCode: %v", err)
	}
	if insns[1] != 7 {
		t.Errorf("string index = %d, want 7", insns[1])
	}
	if insns[3] != 4 {
		t.Errorf("type index = %d, want 4", insns[3])
	}
	if insns[5] != 9 {
		t.Errorf("method index = %d, want 9", insns[5])
	}
	if insns[8] != 5 {
		t.Errorf("branch offset changed to %d, want 5 untouched", insns[8])
	}
}

func TestRemapCodeUnknownOpcode(t *testing.T) {
	err := remapCode([]uint16{0x00FF}, nil, nil, nil)
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("err = %v, want ErrUnknownOpcode", err)
	}
}

func TestRemapCodeTruncated(t *testing.T) {
	// const-string needs two units.
	err := remapCode([]uint16{0x001A}, []int{0}, nil, nil)
	if !errors.Is(err, ErrTruncatedCode) {
		t.Errorf("err = %v, want ErrTruncatedCode", err)
	}
}

func TestRemapCodeUnknownPoolID(t *testing.T) {
	err := remapCode([]uint16{0x001A, 0x0009}, []int{0, 1, 2}, nil, nil)
	if !errors.Is(err, ErrUnknownPoolID) {
		t.Errorf("err = %v, want ErrUnknownPoolID", err)
	}
}
