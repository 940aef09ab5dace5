package orientation

// DefaultThreshold is the default maximum distance between a reading and a
// canonical vector for the reading to select that orientation.
const DefaultThreshold = 0.5

// Match scans Table in order and returns the first orientation whose
// canonical vector lies strictly within threshold of v. An earlier entry wins
// over a later one even when the later one is closer.
func Match(v Vector, threshold float64) (Orientation, bool) {
	limit := threshold * threshold
	for _, e := range Table {
		dx := v.X - e.Vector.X
		dy := v.Y - e.Vector.Y
		if dx*dx+dy*dy < limit {
			return e.Orientation, true
		}
	}
	return Normal, false
}

// Classify returns the orientation selected by v, or previous when no table
// entry is within threshold.
func Classify(v Vector, threshold float64, previous Orientation) Orientation {
	if o, ok := Match(v, threshold); ok {
		return o
	}
	return previous
}

// Classifier carries the matching threshold between calls.
type Classifier struct {
	Threshold float64
}

// NewClassifier creates a classifier, falling back to DefaultThreshold for a
// non-positive threshold.
func NewClassifier(threshold float64) Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Classifier{Threshold: threshold}
}

// Classify is Classify with the classifier's threshold.
func (c Classifier) Classify(v Vector, previous Orientation) Orientation {
	return Classify(v, c.Threshold, previous)
}
