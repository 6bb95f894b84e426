package pkg

// Contains check source have target
func Contains(slice []string, val string) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}

// AppendIfMissing append val when it is not already in slice
func AppendIfMissing(slice []string, val string) []string {
	if Contains(slice, val) {
		return slice
	}
	return append(slice, val)
}

// Remove filter out every occurrence of val
func Remove(slice []string, val string) []string {
	out := make([]string, 0, len(slice))
	for _, v := range slice {
		if v != val {
			out = append(out, v)
		}
	}
	return out
}

// RemoveAll filter out every element of slice that appears in vals
func RemoveAll(slice []string, vals []string) []string {
	out := make([]string, 0, len(slice))
	for _, v := range slice {
		if !Contains(vals, v) {
			out = append(out, v)
		}
	}
	return out
}

// ContainsAll check that every element of vals is in slice
func ContainsAll(slice []string, vals []string) bool {
	for _, v := range vals {
		if !Contains(slice, v) {
			return false
		}
	}
	return true
}
