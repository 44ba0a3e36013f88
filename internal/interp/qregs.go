package interp

import "slices"

type qregInfo struct {
	size  int
	start int
}

// QuantumRegisters allocates virtual qubits to declared registers and keeps
// the permutation from virtual to hardware qubits.
type QuantumRegisters struct {
	regs     map[string]qregInfo
	order    []string
	capacity int
	next     int

	// virtualToHardware and hardwareToVirtual are inverse permutations of
	// [0, capacity).
	virtualToHardware []int
	hardwareToVirtual []int
}

// NewQuantumRegisters returns an empty store over capacity hardware qubits
// with the identity mapping.
func NewQuantumRegisters(capacity int) *QuantumRegisters {
	q := &QuantumRegisters{
		regs:              make(map[string]qregInfo),
		capacity:          capacity,
		virtualToHardware: make([]int, capacity),
		hardwareToVirtual: make([]int, capacity),
	}
	for i := range capacity {
		q.virtualToHardware[i] = i
		q.hardwareToVirtual[i] = i
	}
	return q
}

// Declare allocates size contiguous virtual qubits to name.
func (q *QuantumRegisters) Declare(name string, size int) error {
	if _, ok := q.regs[name]; ok {
		return newError(DuplicateRegister, "qreg", "register %q already declared", name)
	}
	if size <= 0 {
		return newError(IndexOutOfRange, "qreg", "register %q: size must be positive, got %d", name, size)
	}
	if size > q.capacity-q.next {
		return newError(CapacityExceeded, "qreg",
			"register %q[%d] needs %d qubits, only %d of %d left", name, size, size, q.capacity-q.next, q.capacity)
	}
	q.regs[name] = qregInfo{size: size, start: q.next}
	q.order = append(q.order, name)
	q.next += size
	return nil
}

func (q *QuantumRegisters) lookup(name string) (qregInfo, error) {
	r, ok := q.regs[name]
	if !ok {
		return r, newError(UndefinedRegister, "qreg", "no quantum register %q", name)
	}
	return r, nil
}

// VirtualIndex returns the virtual qubit of name[offset].
func (q *QuantumRegisters) VirtualIndex(name string, offset int) (int, error) {
	r, err := q.lookup(name)
	if err != nil {
		return 0, err
	}
	if offset < 0 || offset >= r.size {
		return 0, newError(IndexOutOfRange, "qreg", "%s[%d] out of range, size is %d", name, offset, r.size)
	}
	return r.start + offset, nil
}

// HardwareIndex returns the hardware qubit currently holding name[offset].
func (q *QuantumRegisters) HardwareIndex(name string, offset int) (int, error) {
	v, err := q.VirtualIndex(name, offset)
	if err != nil {
		return 0, err
	}
	return q.virtualToHardware[v], nil
}

// HardwareOf returns the hardware qubit currently holding virtual qubit v.
func (q *QuantumRegisters) HardwareOf(v int) int {
	return q.virtualToHardware[v]
}

// VirtualOf returns the virtual qubit currently held by hardware qubit hw.
func (q *QuantumRegisters) VirtualOf(hw int) int {
	return q.hardwareToVirtual[hw]
}

// Size returns the declared size of name.
func (q *QuantumRegisters) Size(name string) (int, error) {
	r, err := q.lookup(name)
	if err != nil {
		return 0, err
	}
	return r.size, nil
}

// ApplySwapChain walks hardware sequence left to right and, for each
// consecutive pair, exchanges the virtual qubits mapped to them. It only
// updates the mapping.
func (q *QuantumRegisters) ApplySwapChain(hardware []int) {
	for i := 0; i+1 < len(hardware); i++ {
		a, b := hardware[i], hardware[i+1]
		va, vb := q.hardwareToVirtual[a], q.hardwareToVirtual[b]
		q.virtualToHardware[va], q.virtualToHardware[vb] = b, a
		q.hardwareToVirtual[a], q.hardwareToVirtual[b] = vb, va
	}
}

// Mapping returns a copy of the virtual to hardware permutation.
func (q *QuantumRegisters) Mapping() []int {
	return slices.Clone(q.virtualToHardware)
}

// Names returns the declared registers in declaration order.
func (q *QuantumRegisters) Names() []string {
	return slices.Clone(q.order)
}

// Capacity is the number of hardware qubits.
func (q *QuantumRegisters) Capacity() int { return q.capacity }

// Allocated is the number of virtual qubits handed out so far.
func (q *QuantumRegisters) Allocated() int { return q.next }
