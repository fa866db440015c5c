package boolean

// The merges take ascending, duplicate-free id lists and return a new list
// with the same property in one linear pass. Equal heads are consumed from
// both sides.

// Or returns the union of a and b.
func Or(a, b []int) []int {
	res := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			res = append(res, a[i])
			i++
			j++
		case a[i] < b[j]:
			res = append(res, a[i])
			i++
		default:
			res = append(res, b[j])
			j++
		}
	}
	res = append(res, a[i:]...)
	return append(res, b[j:]...)
}

// And returns the intersection of a and b.
func And(a, b []int) []int {
	res := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			res = append(res, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return res
}

// Nand returns the ids of a that are not in b.
func Nand(a, b []int) []int {
	res := make([]int, 0, len(a))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case a[i] < b[j]:
			res = append(res, a[i])
			i++
		default:
			j++
		}
	}
	return append(res, a[i:]...)
}

func merge(op Operator, a, b []int) []int {
	switch op {
	case OpAnd:
		return And(a, b)
	case OpOr:
		return Or(a, b)
	default:
		return Nand(a, b)
	}
}
