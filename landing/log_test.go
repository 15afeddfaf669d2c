package landing

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	l := NewLog(&buf)
	assert.NoError(l.WriteLanding(1.234, 1))
	assert.NoError(l.WriteLanding(0, 1))
	assert.Equal("1.23, 1.00\n0.00, 1.00\n", buf.String())
	assert.NoError(l.Close())
}

func TestOpenLog(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "landing_positions.txt")

	l, err := OpenLog(path, 0)
	assert.NoError(err)
	assert.NoError(l.WriteLanding(1.5, 1))
	assert.NoError(l.Close())

	// reopening appends
	l, err = OpenLog(path, 0)
	assert.NoError(err)
	assert.NoError(l.WriteLanding(2, 1))
	assert.NoError(l.Close())

	data, err := os.ReadFile(path)
	assert.NoError(err)
	assert.Equal("1.50, 1.00\n2.00, 1.00\n", string(data))

	rotated := filepath.Join(t.TempDir(), "rotated.txt")
	l, err = OpenLog(rotated, 1)
	assert.NoError(err)
	assert.NoError(l.WriteLanding(3, 1))
	assert.NoError(l.Close())

	data, err = os.ReadFile(rotated)
	assert.NoError(err)
	assert.Equal("3.00, 1.00\n", string(data))

	l, err = OpenLog("", 0)
	assert.Nil(l)
	assert.Error(err)
}
