package sht

import "math"

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func lfact(n int) float64 {
	v, _ := math.Lgamma(float64(n) + 1)
	return v
}

// wignerStart returns d^j_{mp,m}(beta) at the lowest degree
// j = max(|mp|, |m|), where the Wigner sum collapses to a single term.
func wignerStart(mp, m int, beta float64) float64 {
	j := max(iabs(mp), iabs(m))
	c := math.Cos(beta / 2)
	s := math.Sin(beta / 2)
	lc := math.Log(math.Abs(c))
	ls := math.Log(math.Abs(s))

	kmin := max(0, m-mp)
	kmax := min(j+m, j-mp)
	norm := 0.5 * (lfact(j+mp) + lfact(j-mp) + lfact(j+m) + lfact(j-m))

	var sum float64
	for k := kmin; k <= kmax; k++ {
		pc := 2*j + m - mp - 2*k
		ps := mp - m + 2*k
		lg := norm - lfact(j+m-k) - lfact(k) - lfact(mp-m+k) - lfact(j-mp-k)
		neg := (mp-m+k)%2 != 0
		if pc > 0 {
			if c == 0 {
				continue
			}
			lg += float64(pc) * lc
			if c < 0 && pc%2 == 1 {
				neg = !neg
			}
		}
		if ps > 0 {
			if s == 0 {
				continue
			}
			lg += float64(ps) * ls
			if s < 0 && ps%2 == 1 {
				neg = !neg
			}
		}
		term := math.Exp(lg)
		if neg {
			term = -term
		}
		sum += term
	}
	return sum
}

// wignerRow fills out[l] = d^l_{m,n}(beta) for 0 <= l < len(out) using the
// three-term recursion in l. Entries below max(|m|, |n|) are zero.
func wignerRow(m, n int, beta float64, out []float64) {
	for i := range out {
		out[i] = 0
	}
	l0 := max(iabs(m), iabs(n))
	lmax := len(out) - 1
	if l0 > lmax {
		return
	}

	cb := math.Cos(beta)
	mf, nf := float64(m), float64(n)
	prev := 0.0
	cur := wignerStart(m, n, beta)
	out[l0] = cur

	for l := l0; l < lmax; l++ {
		var next float64
		if l == 0 {
			next = cb * cur
		} else {
			fl := float64(l)
			l1 := fl + 1
			a := l1 * (2*fl + 1) / math.Sqrt((l1*l1-mf*mf)*(l1*l1-nf*nf))
			b := math.Sqrt((fl*fl-mf*mf)*(fl*fl-nf*nf)) / (fl * (2*fl + 1))
			next = a * ((cb-mf*nf/(fl*(fl+1)))*cur - b*prev)
		}
		out[l+1] = next
		prev, cur = cur, next
	}
}

// ylmNorm returns sqrt((2l+1)/(4 pi)).
func ylmNorm(l int) float64 {
	return math.Sqrt(float64(2*l+1) / (4 * math.Pi))
}

// spinSign returns (-1)^s.
func spinSign(s int) float64 {
	if iabs(s)%2 == 1 {
		return -1
	}
	return 1
}
