package interp

// route makes virtual qubits a and b hardware-adjacent. The qubit holding a
// is swapped along the engine's shortest path until it sits next to the
// hardware qubit holding b, which never moves.
func (in *Interpreter) route(a, b int) error {
	from, to := in.qregs.HardwareOf(a), in.qregs.HardwareOf(b)
	path := in.engine.SwapPath(from, to)
	if len(path) < 2 {
		return newError(UnsupportedOperandShape, "route", "no path between hardware qubits %d and %d", from, to)
	}
	if len(path) == 2 {
		return nil
	}

	for i := 0; i+2 < len(path); i++ {
		in.engine.ApplySwap(path[i], path[i+1])
		in.qregs.ApplySwapChain(path[i : i+2])
		in.swaps++
	}

	ha, hb := in.qregs.HardwareOf(a), in.qregs.HardwareOf(b)
	if !in.topo.Adjacent(ha, hb) {
		return newError(UnsupportedOperation, "route", "path %v left hardware qubits %d and %d unlinked", path, ha, hb)
	}
	in.log.Debug("Routed qubits", "virtual", []int{a, b}, "from", from, "to", ha, "target", hb, "swaps", len(path)-2)
	return nil
}
