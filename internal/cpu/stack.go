package cpu

// StackDepth is the number of return addresses the call stack can hold.
const StackDepth = 12

// Stack is the fixed-capacity call stack of return addresses.
type Stack struct {
	entries [StackDepth]uint16
	sp      int
}

// Push stores a return address. Pushing onto a full stack is a fault.
func (s *Stack) Push(addr uint16) error {
	if s.sp == StackDepth {
		return ErrStackOverflow
	}
	s.entries[s.sp] = addr
	s.sp++
	return nil
}

// Pop removes the most recent return address.
func (s *Stack) Pop() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}
	s.sp--
	return s.entries[s.sp], nil
}

func (s *Stack) Len() int { return s.sp }

// Entries returns a copy of the stored addresses, oldest first.
func (s *Stack) Entries() []uint16 {
	out := make([]uint16, s.sp)
	copy(out, s.entries[:s.sp])
	return out
}

func (s *Stack) Reset() { *s = Stack{} }
