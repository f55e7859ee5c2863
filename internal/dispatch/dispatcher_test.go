package dispatch

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itd/internal/discovery"
	"itd/internal/domain"
	"itd/internal/harness"
	"itd/internal/suite"
)

// scenarioDeclaration has classes A (t1, t2) and B (t1); A_t2 fails one assertion.
func scenarioDeclaration() suite.Declaration {
	return suite.Declare(
		suite.Class{Name: "B", Tests: []suite.Method{
			suite.Test("t1", func(*suite.T) {}),
		}},
		suite.Class{Name: "A", Tests: []suite.Method{
			suite.Test("t2", func(t *suite.T) { t.Fatal("expected 2, got 3") }),
			suite.Test("t1", func(*suite.T) {}).Described("first test"),
		}},
	)
}

func newDispatcher(decl suite.Declaration, exec Executor) (*Dispatcher, *bytes.Buffer) {
	var out bytes.Buffer
	if exec == nil {
		exec = harness.NewRunner(zerolog.Nop())
	}
	return New(discovery.Discover(decl), exec, &out, zerolog.Nop()), &out
}

func lines(out *bytes.Buffer) []string {
	text := strings.TrimRight(out.String(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// recordingExecutor remembers which test it was asked to run.
type recordingExecutor struct {
	ran      []string
	failures int
	err      error
}

func (r *recordingExecutor) Run(_ context.Context, class suite.Class, method suite.Method) (domain.Result, error) {
	r.ran = append(r.ran, class.Name+"_"+method.Name)
	if r.err != nil {
		return domain.Result{}, r.err
	}
	result := domain.Result{Test: domain.TestCase{Class: class.Name, Method: method.Name}}
	for i := 0; i < r.failures; i++ {
		result.Failures = append(result.Failures, domain.Failure{Class: class.Name, Method: method.Name, Message: "failure " + strconv.Itoa(i)})
	}
	return result, nil
}

func TestMain_ListMode(t *testing.T) {
	for _, args := range [][]string{nil, {}, {"1", "2"}, {"a", "b", "c"}} {
		t.Run(strings.Join(args, ","), func(t *testing.T) {
			d, out := newDispatcher(scenarioDeclaration(), nil)

			code := d.Main(context.Background(), args)

			assert.Equal(t, 3, code)
			assert.Equal(t, []string{"first test - A_t1", "A_t2", "B_t1"}, lines(out))
		})
	}
}

func TestMain_RunMode(t *testing.T) {
	t.Run("passing test exits 0 with no output", func(t *testing.T) {
		d, out := newDispatcher(scenarioDeclaration(), nil)

		assert.Equal(t, 0, d.Main(context.Background(), []string{"0"}))
		assert.Empty(t, out.String())
	})

	t.Run("failing test prints its failure", func(t *testing.T) {
		d, out := newDispatcher(scenarioDeclaration(), nil)

		assert.Equal(t, 1, d.Main(context.Background(), []string{"1"}))
		assert.Equal(t, []string{"t2(A): expected 2, got 3"}, lines(out))
	})

	t.Run("exit code is the failure count", func(t *testing.T) {
		exec := &recordingExecutor{failures: 3}
		d, out := newDispatcher(scenarioDeclaration(), exec)

		assert.Equal(t, 3, d.Main(context.Background(), []string{"2"}))
		assert.Equal(t, []string{"t1(B): failure 0", "t1(B): failure 1", "t1(B): failure 2"}, lines(out))
		assert.Equal(t, []string{"B_t1"}, exec.ran)
	})
}

func TestMain_MultiLineFailuresStayOnOneLine(t *testing.T) {
	decl := suite.Declare(suite.Class{Name: "A", Tests: []suite.Method{
		suite.Test("diff", func(t *suite.T) { t.Errorf("want:\n  1\ngot:\n  2") }),
		suite.Test("panics", func(*suite.T) { panic("boom\nsecond line") }),
	}})

	t.Run("assertion", func(t *testing.T) {
		d, out := newDispatcher(decl, nil)

		assert.Equal(t, 1, d.Main(context.Background(), []string{"0"}))
		assert.Equal(t, []string{`diff(A): want:\n  1\ngot:\n  2`}, lines(out))
	})

	t.Run("panic", func(t *testing.T) {
		d, out := newDispatcher(decl, nil)

		assert.Equal(t, 1, d.Main(context.Background(), []string{"1"}))
		require.Len(t, lines(out), 1)
		assert.Equal(t, `panics(A): panic: boom\nsecond line`, lines(out)[0])
	})
}

func TestMain_ErrorsExitOneWithoutOutput(t *testing.T) {
	tests := []struct {
		name string
		arg  string
	}{
		{name: "index past the end", arg: "5"},
		{name: "index equal to count", arg: "3"},
		{name: "negative index", arg: "-1"},
		{name: "non numeric", arg: "abc"},
		{name: "empty string", arg: ""},
		{name: "padded number", arg: " 1"},
		{name: "decimal", arg: "1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &recordingExecutor{}
			d, out := newDispatcher(scenarioDeclaration(), exec)

			assert.Equal(t, 1, d.Main(context.Background(), []string{tt.arg}))
			assert.Empty(t, out.String())
			assert.Empty(t, exec.ran, "no test may run")
		})
	}
}

func TestRun_ErrorKinds(t *testing.T) {
	d, _ := newDispatcher(scenarioDeclaration(), nil)

	_, err := d.Run(context.Background(), "abc")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = d.Run(context.Background(), "7")
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRun_ExecutionError(t *testing.T) {
	t.Run("executor error", func(t *testing.T) {
		cause := errors.New("class not loadable")
		d, out := newDispatcher(scenarioDeclaration(), &recordingExecutor{err: cause})

		_, err := d.Run(context.Background(), "0")
		require.ErrorIs(t, err, ErrExecution)
		require.ErrorIs(t, err, cause)
		assert.Empty(t, out.String())
		assert.Equal(t, 1, ExitCode(0, err))
	})

	t.Run("method without body", func(t *testing.T) {
		decl := suite.Declare(suite.Class{Name: "A", Tests: []suite.Method{{Name: "broken"}}})
		d, out := newDispatcher(decl, nil)

		assert.Equal(t, 1, d.Main(context.Background(), []string{"0"}))
		assert.Empty(t, out.String())
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d, out := newDispatcher(scenarioDeclaration(), nil)

		assert.Equal(t, 1, d.Main(ctx, []string{"0"}))
		assert.Empty(t, out.String())
	})
}

func TestIndexMatchesListing(t *testing.T) {
	decl := suite.Declare(
		suite.Class{Name: "pkg.Zeta", Tests: []suite.Method{suite.Test("b", nil), suite.Test("a", nil)}},
		suite.Class{Name: "pkg.Alpha", Tests: []suite.Method{suite.Test("z", nil).Described("last of alpha")}},
		suite.Class{Name: "pkg.Mid", Tests: []suite.Method{suite.Test("m", nil)}},
	)

	lister, out := newDispatcher(decl, nil)
	count := lister.Main(context.Background(), nil)
	listing := lines(out)
	require.Len(t, listing, count)

	for i, line := range listing {
		exec := &recordingExecutor{}
		d, _ := newDispatcher(decl, exec)

		require.Equal(t, 0, d.Main(context.Background(), []string{strconv.Itoa(i)}))
		require.Len(t, exec.ran, 1)
		assert.True(t, strings.HasSuffix(line, exec.ran[0]), "index %d listed %q but ran %q", i, line, exec.ran[0])
	}
}

func TestIdempotentResolution(t *testing.T) {
	var first string
	for i := 0; i < 5; i++ {
		exec := &recordingExecutor{}
		d, _ := newDispatcher(scenarioDeclaration(), exec)
		d.Main(context.Background(), []string{"1"})
		require.Len(t, exec.ran, 1)
		if i == 0 {
			first = exec.ran[0]
			continue
		}
		assert.Equal(t, first, exec.ran[0])
	}
	assert.Equal(t, "A_t2", first)
}

func TestList_EmptyRegistry(t *testing.T) {
	d, out := newDispatcher(suite.Declaration{}, nil)

	assert.Equal(t, 0, d.Main(context.Background(), nil))
	assert.Empty(t, out.String())
	assert.Equal(t, 1, d.Main(context.Background(), []string{"0"}))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestList_WriteError(t *testing.T) {
	d := New(discovery.Discover(scenarioDeclaration()), &recordingExecutor{}, failingWriter{}, zerolog.Nop())

	_, err := d.List()
	require.Error(t, err)
	assert.Equal(t, 1, d.Main(context.Background(), nil))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(0, nil))
	assert.Equal(t, 4, ExitCode(4, nil))
	assert.Equal(t, 1, ExitCode(0, ErrIndexOutOfRange))
	assert.Equal(t, 1, ExitCode(9, ErrExecution))
}
