package phi

// IsMember returns true if s equals any element of set.
func IsMember(s string, set []string) bool {
	for i := range set {
		if set[i] == s {
			return true
		}
	}
	return false
}

// TopicMask returns, for each topic of m, whether it is named in
// filter.  An empty filter selects all topics.  Names in filter that
// m does not have are ignored.
func TopicMask(m Matrix, filter []string) []bool {
	mask := make([]bool, m.TopicSize())
	names := m.TopicNames()
	for t := range mask {
		mask[t] = len(filter) == 0 || IsMember(names[t], filter)
	}
	return mask
}

// Normalize computes pwt from counters nwt and regularization rwt:
//
//	pwt[w,t] = max(nwt[w,t] + rwt[w,t], 0) / Z[class(w),t]
//
// where Z sums the numerator over all tokens of the same class.
// Columns whose sum is zero get zeros.  rwt can be nil.  All three
// matrices must have the same shape and rows.
func Normalize(nwt, rwt Matrix, pwt MutableMatrix) {
	topics := nwt.TopicSize()
	numerator := func(w, t int) float64 {
		v := nwt.Get(w, t)
		if rwt != nil {
			v += rwt.Get(w, t)
		}
		if v < 0 {
			return 0
		}
		return v
	}

	sums := make(map[string][]float64)
	for w := 0; w < nwt.TokenSize(); w++ {
		class := nwt.Token(w).ClassId
		s, ok := sums[class]
		if !ok {
			s = make([]float64, topics)
			sums[class] = s
		}
		for t := 0; t < topics; t++ {
			s[t] += numerator(w, t)
		}
	}

	for w := 0; w < nwt.TokenSize(); w++ {
		s := sums[nwt.Token(w).ClassId]
		for t := 0; t < topics; t++ {
			if s[t] > 0 {
				pwt.Set(w, t, numerator(w, t)/s[t])
			} else {
				pwt.Set(w, t, 0)
			}
		}
	}
}
