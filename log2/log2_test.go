package log2

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	t.Parallel()

	type Case struct {
		level  Level
		expect string
	}
	cases := []Case{
		{LError - 1, ""},
		{LError, "error: e\n"},
		{LInfo, "error: e\ni\n"},
		{LDebug, "error: e\ni\ndebug: d\n"},
		{LAll, "error: e\ni\ndebug: d\n"},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("level=%d", c.level), func(t *testing.T) {
			t.Parallel()
			buf := bytes.NewBuffer(nil)
			l := NewWriter(buf, c.level)
			l.SetFlags(0)
			l.Errorf("e")
			l.Infof("i")
			l.Debugf("d")
			assert.Equal(t, c.expect, buf.String())
		})
	}
}

func TestSetLevelConcurrent(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)
	l := NewWriter(buf, LInfo)
	l.SetFlags(0)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.SetLevel(Level(j % 3))
				_ = l.Enabled(LDebug)
			}
		}()
	}
	wg.Wait()
	l.SetLevel(LDebug)
	assert.True(t, l.Enabled(LDebug))
	assert.False(t, l.Enabled(LAll))
}

func TestErrorFunc(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)
	// level below LError, nothing written but hook still sees every error
	l := NewWriter(buf, LError-1)
	var got []string
	l.SetErrorFunc(func(e error) { got = append(got, e.Error()) })
	exact := fmt.Errorf("exact")
	l.Error(exact)
	l.Error("joined", 2)
	l.Errorf("formatted var=%d", 3)
	assert.Equal(t, []string{"exact", "joined2", "formatted var=3"}, got)
	assert.Equal(t, "", buf.String())

	c := l.Clone(LError)
	c.SetFlags(0)
	c.Errorf("from clone")
	assert.Equal(t, "from clone", got[len(got)-1])
	assert.Equal(t, "error: from clone\n", buf.String())
}

func TestNilLog(t *testing.T) {
	t.Parallel()

	var l *Log
	assert.Nil(t, NewWriter(ioutil.Discard, LAll))
	assert.NotPanics(t, func() {
		l.SetLevel(LDebug)
		l.SetFlags(0)
		l.SetPrefix("p")
		l.SetErrorFunc(func(error) { t.Error("called on nil log") })
		l.Error("e")
		l.Errorf("e")
		l.Info("i")
		l.Infof("i")
		l.Debug("d")
		l.Debugf("d")
	})
	assert.False(t, l.Enabled(LError))
	assert.Nil(t, l.Clone(LDebug))
}

func TestFuncWriter(t *testing.T) {
	t.Parallel()

	var lines []string
	l := NewFunc(func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}, LDebug)
	l.SetFlags(0)
	l.SetPrefix("input ")
	l.Infof("one")
	l.Debugf("two")
	assert.Equal(t, []string{"input one", "input debug: two"}, lines)
}

func TestCaller(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)
	l := NewWriter(buf, LInfo)
	l.SetFlags(Lshortfile)
	l.Infof("where")
	s := buf.String()
	require.True(t, strings.HasPrefix(s, "log2_test.go:"), s)
	assert.True(t, strings.HasSuffix(s, ": where\n"), s)
}

func TestContextValueLogger(t *testing.T) {
	t.Parallel()

	l := NewTest(t, LDebug)
	ctx := context.WithValue(context.Background(), ContextKey, l)
	assert.Equal(t, l, ContextValueLogger(ctx))
	assert.Panics(t, func() { ContextValueLogger(context.Background()) })
	assert.Panics(t, func() {
		ContextValueLogger(context.WithValue(context.Background(), ContextKey, "log"))
	})
}
