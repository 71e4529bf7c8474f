package allocation

// defaultMaxCompositions bounds the exhaustive search when no option is given.
const defaultMaxCompositions = 10_000_000

// Option applies a configuration option to a search.
type Option func(*searcher)

// WithMaxCompositions refuses searches whose composition count exceeds n.
// Zero disables the limit.
func WithMaxCompositions(n uint64) Option {
	return func(s *searcher) {
		s.maxCompositions = n
	}
}
