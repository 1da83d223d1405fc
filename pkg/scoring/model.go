package scoring

import (
	"math"

	"github.com/Killjoybr/IA-CAI/pkg/finding"
)

// NumClasses is the number of severity classes.
const NumClasses = 3

// TrainOptions controls fitting. The zero value is not usable; start
// from DefaultTrainOptions.
type TrainOptions struct {
	// C is the inverse L2 regularization strength. The intercept is not
	// regularized.
	C float64
	// LearningRate is the fixed gradient descent step.
	LearningRate float64
	// Iterations is the fixed number of full-batch steps.
	Iterations int
}

// DefaultTrainOptions returns the settings New uses.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{C: 1.0, LearningRate: 0.02, Iterations: 3000}
}

// Estimate is a severity prediction.
type Estimate struct {
	Class      finding.Severity
	Index      int
	Confidence float64
	// Probabilities holds the probability of each class index.
	Probabilities [NumClasses]float64
}

// Classifier is a fitted softmax regression. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	weights [NumClasses][NumFeatures]float64
	bias    [NumClasses]float64
}

// New fits a classifier on Exemplars with DefaultTrainOptions.
func New() *Classifier {
	return Train(Exemplars(), DefaultTrainOptions())
}

// Train fits a classifier by full-batch gradient descent from zero
// weights, minimising 0.5*||W||^2 + C * sum(cross-entropy). There is no
// randomness and no early stopping, so identical inputs give identical
// weights. Products are explicitly rounded before accumulation to stop
// the compiler fusing them, keeping results identical across
// architectures.
func Train(examples []Example, opts TrainOptions) *Classifier {
	xs := make([]Features, len(examples))
	ys := make([]int, len(examples))
	for i, ex := range examples {
		xs[i] = Extract(ex.Finding)
		ys[i] = ex.Class
	}

	c := &Classifier{}
	for iter := 0; iter < opts.Iterations; iter++ {
		gradW := c.weights
		var gradB [NumClasses]float64

		for i, x := range xs {
			p := c.probabilities(x)
			for k := 0; k < NumClasses; k++ {
				target := 0.0
				if k == ys[i] {
					target = 1
				}
				d := float64(opts.C * (p[k] - target))
				gradB[k] += d
				for j := 0; j < NumFeatures; j++ {
					gradW[k][j] += float64(d * x[j])
				}
			}
		}

		for k := 0; k < NumClasses; k++ {
			c.bias[k] -= float64(opts.LearningRate * gradB[k])
			for j := 0; j < NumFeatures; j++ {
				c.weights[k][j] -= float64(opts.LearningRate * gradW[k][j])
			}
		}
	}
	return c
}

func (c *Classifier) probabilities(x Features) [NumClasses]float64 {
	var z [NumClasses]float64
	maxZ := math.Inf(-1)
	for k := 0; k < NumClasses; k++ {
		s := c.bias[k]
		for j := 0; j < NumFeatures; j++ {
			s += float64(c.weights[k][j] * x[j])
		}
		z[k] = s
		maxZ = max(maxZ, s)
	}

	var sum float64
	for k := range z {
		z[k] = math.Exp(z[k] - maxZ)
		sum += z[k]
	}
	for k := range z {
		z[k] /= sum
	}
	return z
}

// Probabilities returns the probability of each class for f.
func (c *Classifier) Probabilities(f finding.Finding) [NumClasses]float64 {
	return c.probabilities(Extract(f))
}

// Classify returns the most probable class for f and its probability.
// Ties go to the lower class.
func (c *Classifier) Classify(f finding.Finding) Estimate {
	p := c.Probabilities(f)
	best := 0
	for k := 1; k < NumClasses; k++ {
		if p[k] > p[best] {
			best = k
		}
	}
	class, _ := finding.SeverityFromIndex(best)
	return Estimate{Class: class, Index: best, Confidence: p[best], Probabilities: p}
}

// Weights returns a copy of the fitted parameters.
func (c *Classifier) Weights() (w [NumClasses][NumFeatures]float64, b [NumClasses]float64) {
	return c.weights, c.bias
}
