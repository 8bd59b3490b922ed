package quiz

import "math/rand"

// permutation returns a Fisher-Yates shuffled index order of length n.
func permutation(r *rand.Rand, n int) []int {
	order := identity(n)
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
