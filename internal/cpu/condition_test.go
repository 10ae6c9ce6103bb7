package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// referenceCondition is an independently written truth table for the ARM
// condition field, kept deliberately separate from CheckCondition's
// switch so this test can't pass by sharing a bug with the
// implementation. Table taken from the ARM7TDMI condition field
// reference (spec §4.7/§8: "96 cases").
func referenceCondition(cond ARMCondition, n, z, c, v bool) bool {
	switch cond {
	case EQ:
		return z == true
	case NE:
		return z == false
	case CS:
		return c == true
	case CC:
		return c == false
	case MI:
		return n == true
	case PL:
		return n == false
	case VS:
		return v == true
	case VC:
		return v == false
	case HI:
		return c && z == false
	case LS:
		return c == false || z
	case GE:
		return n == v
	case LT:
		return n != v
	case GT:
		return z == false && n == v
	case LE:
		return z || n != v
	case AL:
		return true
	case NV:
		return false
	}
	panic("unreachable condition")
}

// Spec §8: "For every cond in {EQ,...,NV} and every (N,Z,C,V) in
// {0,1}^4, check_cond agrees with the ARM truth table (96 cases)" --
// actually 16 conditions * 16 flag combinations = 256 cases; the spec's
// "96" counts only the conditions that are not simple single-flag
// checks, but exhaustive coverage of all combinations is strictly more
// thorough and is what this test does.
func TestConditionTruthTableExhaustive(t *testing.T) {
	conds := []ARMCondition{EQ, NE, CS, CC, MI, PL, VS, VC, HI, LS, GE, LT, GT, LE, AL, NV}
	for _, cond := range conds {
		for bits := 0; bits < 16; bits++ {
			n := bits&0x8 != 0
			z := bits&0x4 != 0
			c := bits&0x2 != 0
			v := bits&0x1 != 0
			name := fmt.Sprintf("cond=%X/N=%v,Z=%v,C=%v,V=%v", uint32(cond), n, z, c, v)
			t.Run(name, func(t *testing.T) {
				assert.Equal(t, referenceCondition(cond, n, z, c, v), CheckCondition(cond, n, z, c, v))
			})
		}
	}
}
