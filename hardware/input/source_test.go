package input

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/inputevent-go"
	input_config "github.com/temoto/keypump/hardware/input/config"
	"github.com/temoto/keypump/internal/types"
)

func encodeAll(t testing.TB, rs ...types.Record) []byte {
	buf := bytes.NewBuffer(nil)
	for _, r := range rs {
		require.NoError(t, EncodeRecord(buf, r))
	}
	return buf.Bytes()
}

func TestEncodeRecordSize(t *testing.T) {
	t.Parallel()

	b := encodeAll(t, types.KeyRecord(types.KeyW, types.KeyPressed))
	assert.Len(t, b, inputevent.EventSizeof)
}

func TestStreamSourceRead(t *testing.T) {
	t.Parallel()

	input := []types.Record{
		types.KeyRecord(types.KeyW, types.KeyPressed),
		{Type: types.EV_SYN},
		{Type: types.EV_MSC, Code: 4, Value: 0x1a},
		types.KeyRecord(types.KeyW, types.KeyReleased),
	}
	src := NewStreamSource(ioutil.NopCloser(bytes.NewReader(encodeAll(t, input...))))
	assert.Equal(t, DevInputEventTag, src.String())
	for i, expect := range input {
		r, err := src.Read()
		require.NoError(t, err, "i=%d", i)
		assert.Equal(t, expect, r, "i=%d", i)
	}
	_, err := src.Read()
	assert.Equal(t, io.EOF, errors.Cause(err))
	assert.False(t, IsTemporary(err))
	assert.NoError(t, src.Close())
}

type zeroReader struct{ n int }

func (z *zeroReader) Read(p []byte) (int, error) {
	if z.n > 0 {
		z.n--
		return 0, nil
	}
	return 0, io.EOF
}

func TestStreamSourceZeroRead(t *testing.T) {
	t.Parallel()

	src := NewStreamSource(ioutil.NopCloser(&zeroReader{n: 2}))
	for i := 0; i < 2; i++ {
		_, err := src.Read()
		assert.Equal(t, ErrReadEmpty, err)
		assert.True(t, IsTemporary(err))
	}
	_, err := src.Read()
	assert.Equal(t, io.EOF, errors.Cause(err))
}

func TestStreamSourceShortRead(t *testing.T) {
	t.Parallel()

	b := encodeAll(t, types.KeyRecord(types.KeyA, types.KeyPressed))
	src := NewStreamSource(ioutil.NopCloser(bytes.NewReader(b[:5])))
	_, err := src.Read()
	require.Error(t, err)
	assert.False(t, IsTemporary(err))
}

func TestDevInputEventSourceFile(t *testing.T) {
	t.Parallel()

	// regular file stands in for device, ioctls fail and are not fatal
	path := filepath.Join(t.TempDir(), "event-test")
	rec := types.KeyRecord(types.KeyD, types.KeyRepeat)
	require.NoError(t, ioutil.WriteFile(path, encodeAll(t, rec), 0600))

	src, err := NewDevInputEventSource(&input_config.Config{Device: path, PollTimeoutMs: 50})
	require.NoError(t, err)
	assert.Equal(t, "", src.Name())
	r, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, rec, r)
	_, err = src.Read()
	assert.Equal(t, io.EOF, errors.Cause(err))
	assert.NoError(t, src.Close())
}

func TestDevInputEventSourceMissing(t *testing.T) {
	t.Parallel()

	_, err := NewDevInputEventSource(&input_config.Config{Device: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}
