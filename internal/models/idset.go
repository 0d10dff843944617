package models

// IDSet is an insertion-ordered collection of entity ids.
// The type itself allows duplicates; operations keep them out.
type IDSet []int64

// Contains reports whether id is present.
func (s IDSet) Contains(id int64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id.
func (s *IDSet) Add(id int64) {
	*s = append(*s, id)
}

// Remove deletes the first occurrence of id and reports whether it was found.
func (s *IDSet) Remove(id int64) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	c := make(IDSet, len(s))
	copy(c, s)
	return c
}
