package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewGaussian(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		mean []float64
		cov  *mat.SymDense
		ok   bool
	}{
		{
			mean: []float64{2, 3},
			cov:  mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}),
			ok:   true,
		},
		{
			mean: []float64{2},
			cov:  mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}),
			ok:   false,
		},
		{
			mean: []float64{0, 0},
			cov:  mat.NewSymDense(2, []float64{1, 2, 2, 1}),
			ok:   false,
		},
	} {
		g, err := NewGaussian(test.mean, test.cov)
		if test.ok {
			assert.NotNil(g)
			assert.NoError(err)
			continue
		}
		assert.Nil(g)
		assert.Error(err)
	}
}

func TestNewIsotropic(t *testing.T) {
	assert := assert.New(t)

	g, err := NewIsotropic(4, 0.03)
	assert.NotNil(g)
	assert.NoError(err)

	cov := g.Cov()
	assert.Equal(4, cov.SymmetricDim())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if i == j {
				want = 0.03
			}
			assert.Equal(want, cov.At(i, j))
		}
	}
	assert.EqualValues([]float64{0, 0, 0, 0}, g.Mean())

	g, err = NewIsotropic(0, 0.03)
	assert.Nil(g)
	assert.Error(err)

	g, err = NewIsotropic(2, 0)
	assert.Nil(g)
	assert.Error(err)
}

func TestGaussianMeanCov(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov)
	assert.NotNil(g)
	assert.NoError(err)

	assert.True(mat.Equal(cov, g.Cov()))
	assert.EqualValues(mean, g.Mean())

	// returned values are copies
	g.Mean()[0] = 100
	assert.EqualValues(mean, g.Mean())
}

func TestGaussianSample(t *testing.T) {
	assert := assert.New(t)

	g, err := NewGaussian([]float64{2, 3}, mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}))
	assert.NoError(err)

	sample := g.Sample()
	assert.Equal(2, sample.Len())
}

func TestGaussianSeeded(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	g1, err := NewGaussianWithSeed([]float64{0, 0}, cov, 42)
	assert.NoError(err)
	g2, err := NewGaussianWithSeed([]float64{0, 0}, cov, 42)
	assert.NoError(err)

	s1 := g1.Sample()
	assert.True(mat.Equal(s1, g2.Sample()))

	// seeded reset restarts the sequence
	assert.NoError(g1.Reset())
	assert.True(mat.Equal(s1, g1.Sample()))
}

func TestGaussianString(t *testing.T) {
	assert := assert.New(t)

	str := `Gaussian{
Mean=[2 3]
Cov=⎡  1  0.1⎤
    ⎣0.1    1⎦
}`
	g, err := NewGaussian([]float64{2, 3}, mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}))
	assert.NotNil(g)
	assert.NoError(err)
	assert.Equal(str, g.String())
}
