package normalize

// VideoKey is the canonical identifier of a single video.
// Two inputs referring to the same video always normalize to the same
// key, regardless of which URL shape they were written in.
type VideoKey string

func (k VideoKey) String() string {
	return string(k)
}

// Resolution pairs one raw input with its normalization result.
// Exactly one of key/err is meaningful.
type Resolution struct {
	raw string
	key VideoKey
	err *NormalizeError
}

func (r Resolution) Raw() string {
	return r.raw
}

func (r Resolution) Key() VideoKey {
	return r.key
}

func (r Resolution) Err() *NormalizeError {
	return r.err
}

type Set[T comparable] map[T]struct{}

func NewSet[T comparable]() Set[T] {
	return make(Set[T])
}

func (s Set[T]) Add(item T) {
	s[item] = struct{}{}
}

func (s Set[T]) Contains(item T) bool {
	_, exists := s[item]
	return exists
}

func (s Set[T]) Size() int {
	return len(s)
}
